package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/repository"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/service"
	apperrors "github.com/mdmehedyhasanmiraz/wellmart-backend/pkg/util"
)

// AdminHandler exposes the privileged admin API routes. Every route here is
// registered behind the auth middleware and the admin-API gate.
type AdminHandler struct {
	companies repository.CompanyRepository
	sms       *service.SMSService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(companies repository.CompanyRepository, sms *service.SMSService) *AdminHandler {
	return &AdminHandler{companies: companies, sms: sms}
}

// DeleteCompany handles DELETE /api/admin/companies/:id.
func (h *AdminHandler) DeleteCompany(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return apperrors.NewValidationError("company id required", nil)
	}

	if err := h.companies.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("company", map[string]any{"id": id})
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// SMSBalance handles GET /api/admin/sms/balance.
func (h *AdminHandler) SMSBalance(c *fiber.Ctx) error {
	balance, err := h.sms.Balance(c.UserContext())
	if err != nil {
		if errors.Is(err, service.ErrSMSGatewayUnavailable) {
			return apperrors.NewUpstreamUnavailable("sms gateway unavailable")
		}
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"balance": balance}})
}
