package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/repository"
	apperrors "github.com/mdmehedyhasanmiraz/wellmart-backend/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Role is the fresh
// record-store value, not the credential's cached claim.
type Principal struct {
	Identity domain.Identity
	Role     domain.Role
}

// Middleware validates credentials and loads principals for protected routes.
type Middleware struct {
	tokens  *TokenManager
	carrier *SessionCarrier
	users   repository.UserRepository
	logger  *zap.Logger
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, carrier *SessionCarrier, users repository.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, carrier: carrier, users: users, logger: logger}
}

// Handle enforces authentication. The credential's role claim is never
// trusted: the role is re-resolved from the record store on every request
// that reaches a gated capability.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	credential, ok := m.carrier.Extract(c)
	if !ok {
		return apperrors.NewUnauthorized("missing credential")
	}

	identity, err := m.tokens.Verify(credential)
	if err != nil {
		// expired, tampered and malformed credentials are all just
		// anonymous callers, not server faults
		return apperrors.NewUnauthorized("invalid credential")
	}

	role, err := m.users.GetRoleByID(c.UserContext(), identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return apperrors.NewNotProvisioned("no account for identity")
		}
		m.logger.Error("role lookup failed", zap.Error(err))
		// never infer success from a failed check
		return apperrors.NewUnauthorized("role verification unavailable")
	}

	identity.Role = role
	c.Locals(principalKey, &Principal{Identity: identity, Role: role})
	return c.Next()
}

// RequireSurface gates a route group on the access policy for a surface.
// Runs after Handle, so the caller is authenticated; a disallowed role is a
// plain 403 for API consumers.
func RequireSurface(surface Surface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		decision := Decide(surface, principal.Role, true)
		if !decision.Allow {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
