package provider

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

// IdentityProvider is the boundary to the external identity service. It
// returns identity facts only; role resolution and access decisions happen
// elsewhere.
//
// CurrentUser and Exchange distinguish "no authenticated user" (nil, nil)
// from a provider fault (nil, err). Callers must not collapse the two: no
// user routes to login, a fault is a transient signal that is logged and
// conservatively treated as anonymous, never as a definitive deny and never
// as a success.
type IdentityProvider interface {
	Name() string
	// AuthCodeURL builds the provider's authorization URL for a handshake.
	AuthCodeURL(state, nonce string) string
	// Exchange completes the OAuth code exchange after the provider
	// redirects back.
	Exchange(ctx context.Context, code, nonce string) (*domain.Identity, error)
	// CurrentUser asks the provider who the bearer of accessToken is.
	CurrentUser(ctx context.Context, accessToken string) (*domain.Identity, error)
}

// RandomToken returns a URL-safe random string for state and nonce values.
func RandomToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
