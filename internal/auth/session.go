package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the site-scoped cookie carrying the credential.
const SessionCookieName = "wellmart_session"

// SessionCarrier binds credentials to the transport layer. It is stateless:
// validity lives entirely in the credential, nothing is stored server-side.
type SessionCarrier struct {
	secure bool
}

// NewSessionCarrier builds a carrier. secure controls the Secure cookie
// attribute and is only disabled for local plain-HTTP development.
func NewSessionCarrier(secure bool) *SessionCarrier {
	return &SessionCarrier{secure: secure}
}

// Attach writes the credential cookie, overwriting any prior cookie of the
// same name. MaxAge tracks the credential's remaining validity.
func (sc *SessionCarrier) Attach(c *fiber.Ctx, credential string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    credential,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   sc.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear writes an already-expired cookie so the client drops the session on
// its next request regardless of prior state.
func (sc *SessionCarrier) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   sc.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Extract reads the credential from the session cookie, falling back to an
// explicit bearer value. Absent is a normal outcome for anonymous requests.
func (sc *SessionCarrier) Extract(c *fiber.Ctx) (string, bool) {
	if cookie := c.Cookies(SessionCookieName); cookie != "" {
		return cookie, true
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
