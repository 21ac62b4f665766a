package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/observability"
)

func TestRequestTimeoutReachesHandlers(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 2*time.Second)

	var hasDeadline bool
	var remaining time.Duration
	app.Get("/check", func(c *fiber.Ctx) error {
		var deadline time.Time
		deadline, hasDeadline = c.UserContext().Deadline()
		remaining = time.Until(deadline)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/check", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.True(t, hasDeadline)
	require.Greater(t, remaining, time.Duration(0))
	require.LessOrEqual(t, remaining, 2*time.Second)
}

func TestNoTimeoutConfiguredLeavesContextUnbounded(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)

	var hasDeadline bool
	app.Get("/check", func(c *fiber.Ctx) error {
		_, hasDeadline = c.UserContext().Deadline()
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/check", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.False(t, hasDeadline)
}
