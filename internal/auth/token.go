package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

// Verification failures. All three are ordinary outcomes for
// attacker-controlled input, never panics or 500s.
var (
	ErrMalformedToken    = errors.New("auth: malformed token")
	ErrSignatureMismatch = errors.New("auth: token signature mismatch")
	ErrTokenExpired      = errors.New("auth: token expired")
)

// TokenManager issues and verifies the self-contained signed credential.
// It holds only the signing secret, set at process start and never mutated,
// so verification is safe across concurrent requests.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes the credential payload. The embedded role is a cache
// hint; privilege-gated operations re-read it from the record store.
type Claims struct {
	Name  string      `json:"name,omitempty"`
	Email string      `json:"email"`
	Phone string      `json:"phone,omitempty"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue builds and signs a credential for the identity.
func (tm *TokenManager) Issue(identity domain.Identity) (string, time.Time, error) {
	if identity.ID == "" || identity.Email == "" {
		return "", time.Time{}, errors.New("auth: identity id and email are required")
	}

	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Name:  identity.Name,
		Email: identity.Email,
		Phone: identity.Phone,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates the credential and returns the embedded identity.
// Failures map to exactly one of ErrTokenExpired, ErrSignatureMismatch
// or ErrMalformedToken.
func (tm *TokenManager) Verify(tokenStr string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Identity{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return domain.Identity{}, ErrSignatureMismatch
		default:
			return domain.Identity{}, ErrMalformedToken
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, ErrMalformedToken
	}

	return domain.Identity{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Phone: claims.Phone,
		Role:  claims.Role,
	}, nil
}

// TTL exposes the configured credential lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}
