package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/orderbot-backend/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version          string
	Storage          string
	TwilioConfigured bool

	archive  storage.OrderArchive
	sessions storage.SessionCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storageType string, twilioConfigured bool, archive storage.OrderArchive, sessions storage.SessionCounter) *HealthHandler {
	return &HealthHandler{
		Version:          version,
		Storage:          storageType,
		TwilioConfigured: twilioConfigured,
		archive:          archive,
		sessions:         sessions,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK

	archiveStatus := "connected"
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.archive.Ping(ctx); err != nil {
		archiveStatus = "error: " + err.Error()
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"version": h.Version,
		"services": fiber.Map{
			"archive":  archiveStatus,
			"storage":  h.Storage,
			"twilio":   h.TwilioConfigured,
			"sessions": h.sessions.CountByState(),
		},
	})
}
