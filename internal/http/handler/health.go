package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"docportal/internal/database"
	"docportal/internal/service"
)

const dbPingTimeout = 2 * time.Second

// HealthCheck reports database connectivity.
//
//	@Summary	Database health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	errorPayload
//	@Router		/health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		if err := database.Ping(c.UserContext(), db, dbPingTimeout); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// EngineHealth reports whether the document engine answers its health endpoint. The
// response is always 200; the outcome is in the status field.
//
//	@Summary	Document engine health
//	@Tags		health
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	service.EngineHealth
//	@Router		/document-engine/health [get]
func EngineHealth(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.EngineHealth(c.UserContext()))
	}
}
