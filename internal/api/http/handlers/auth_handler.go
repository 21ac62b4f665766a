package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/api/dto"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/auth"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/repository"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/service"
)

// AuthHandler exposes the login, callback and session endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	carrier *auth.SessionCarrier
	users   repository.UserRepository
	logger  *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, carrier *auth.SessionCarrier, users repository.UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, carrier: carrier, users: users, logger: logger}
}

// BeginLogin handles GET /auth/login: redirect out to the provider.
func (h *AuthHandler) BeginLogin(c *fiber.Ctx) error {
	return h.begin(c, service.FlowGeneral)
}

// BeginAdminLogin handles GET /auth/admin-login.
func (h *AuthHandler) BeginAdminLogin(c *fiber.Ctx) error {
	return h.begin(c, service.FlowAdmin)
}

func (h *AuthHandler) begin(c *fiber.Ctx, flow service.Flow) error {
	authURL, err := h.auth.BeginOAuth(c.UserContext(), flow)
	if err != nil {
		h.logger.Error("begin oauth failed", zap.Error(err))
		return fiber.NewError(http.StatusServiceUnavailable, "login temporarily unavailable")
	}
	return c.Redirect(authURL, http.StatusFound)
}

// Callback handles GET /auth/callback, the general OAuth return.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	return h.reconcile(c, service.FlowGeneral)
}

// AdminCallback handles GET /admin-login/callback with admin destinations.
func (h *AuthHandler) AdminCallback(c *fiber.Ctx) error {
	return h.reconcile(c, service.FlowAdmin)
}

func (h *AuthHandler) reconcile(c *fiber.Ctx, flow service.Flow) error {
	result := h.auth.Reconcile(c.UserContext(), flow, service.CallbackInput{
		Code:        c.Query("code"),
		State:       c.Query("state"),
		AccessToken: c.Query("access_token"),
	})
	if result.Token != "" {
		h.carrier.Attach(c, result.Token, result.ExpiresAt)
	}
	return c.Redirect(result.Redirect, http.StatusFound)
}

// Login handles POST /api/auth/login for email-or-phone credentials.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Identifier == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "identifier and password required")
	}

	user, token, expiresAt, err := h.auth.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	h.carrier.Attach(c, token, expiresAt)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.UserResponseFrom(domain.IdentityFromUser(user)),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

// Logout handles POST /api/auth/logout. Always succeeds, even for anonymous
// callers, and tells the client to also end the provider session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	subjectID := ""
	if credential, ok := h.carrier.Extract(c); ok {
		if identity, err := h.auth.TokenManager().Verify(credential); err == nil {
			subjectID = identity.ID
		}
	}

	h.carrier.Clear(c)
	h.auth.Logout(c.UserContext(), subjectID)
	return c.JSON(fiber.Map{
		"success":           true,
		"sign_out_provider": true,
	})
}

// Me handles GET /api/auth/me. Runs behind the auth middleware.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(fiber.Map{"data": dto.UserResponseFrom(principal.Identity)})
}

// Gate handles GET /api/auth/gate?surface=... for the UI shell: it reports
// the navigation decision for the visitor's current session without
// mutating anything. Anonymous and broken credentials both read as
// unauthenticated here.
func (h *AuthHandler) Gate(c *fiber.Ctx) error {
	surface := auth.Surface(c.Query("surface"))
	if surface == "" {
		return fiber.NewError(http.StatusBadRequest, "surface required")
	}

	authenticated := false
	var role domain.Role
	if credential, ok := h.carrier.Extract(c); ok {
		if identity, err := h.auth.TokenManager().Verify(credential); err == nil {
			freshRole, roleErr := h.users.GetRoleByID(c.UserContext(), identity.ID)
			if roleErr == nil {
				authenticated = true
				role = freshRole
			}
		}
	}

	decision := auth.Decide(surface, role, authenticated)
	return c.JSON(fiber.Map{"data": dto.GateResponse{
		Allow:    decision.Allow,
		Redirect: decision.RedirectTarget,
	}})
}
