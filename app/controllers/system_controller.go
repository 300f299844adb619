package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/internal/pkg/activation"
	"github.com/FlorianWeber/FitFox/internal/pkg/database"
	"github.com/FlorianWeber/FitFox/internal/pkg/metrics/counter"
)

type activateRequest struct {
	Services         []string `json:"services"`
	SecretsValidated bool     `json:"secrets_validated"`
	SyncNow          bool     `json:"sync_now"`
}

type initializeRequest struct {
	Services          []string `json:"services"`
	EnableDiagnostics bool     `json:"enable_diagnostics"`
	SyncNow           bool     `json:"sync_now"`
}

type testAllRequest struct {
	Capabilities []string `json:"capabilities"`
}

// HandleHealth is the liveness probe.
func HandleHealth(c *fiber.Ctx) error {
	dbStatus := "ok"
	if database.GetDB() == nil {
		dbStatus = "unavailable"
	}

	return c.JSON(fiber.Map{
		"status":    "ok",
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleActivateAll activates the requested services for the current user.
// Partial failure is a per-service status in the body, not a non-2xx code.
func HandleActivateAll(c *fiber.Ctx) error {
	var req activateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if len(req.Services) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "No services requested"})
	}

	results := coordinator.ActivateFitnessIntegrations(c.Context(), activation.ActivateRequest{
		UserID:           currentUserID(c),
		Services:         req.Services,
		SecretsValidated: req.SecretsValidated,
		SyncNow:          req.SyncNow,
	})

	return c.JSON(fiber.Map{"success": true, "results": results})
}

// HandleInitialize runs the full system initialization flow.
func HandleInitialize(c *fiber.Ctx) error {
	var req initializeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
		}
	}

	report := coordinator.InitializeFitnessSystem(c.Context(), activation.InitializeOptions{
		UserID:            currentUserID(c),
		Services:          req.Services,
		EnableDiagnostics: req.EnableDiagnostics,
		SyncNow:           req.SyncNow,
		OnMissingSecrets: func(serviceID string, missing []string) {
			log.Warnf("[System] service %s is missing secrets: %v", serviceID, missing)
		},
	})

	return c.JSON(fiber.Map{"success": true, "report": report})
}

// HandleTestAll verifies the cloud capability key groups, with one automatic
// fallback per failing capability.
func HandleTestAll(c *fiber.Ctx) error {
	var req testAllRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
		}
	}
	if len(req.Capabilities) == 0 {
		req.Capabilities = []string{"vision", "gemini"}
	}

	report := keyManager.InitializeAllServices(c.Context(), req.Capabilities)
	return c.JSON(fiber.Map{"success": report.Success, "assignments": report.Assignments})
}

// HandleForceKeyGroup pins a capability to a named key group.
func HandleForceKeyGroup(c *fiber.Ctx) error {
	capability := c.Params("capability")
	groupName := c.Query("group")
	if groupName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing group parameter"})
	}

	if !keyManager.ForceServiceGroup(capability, groupName) {
		return c.JSON(fiber.Map{"success": false, "message": "Unknown group or group has no key"})
	}

	return c.JSON(fiber.Map{"success": true, "capability": capability, "group": groupName})
}

// HandleSystemStats reports process-wide sync counters.
func HandleSystemStats(c *fiber.Ctx) error {
	runs, failures, err := counter.SyncTotals()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load counters"})
	}

	return c.JSON(fiber.Map{"success": true, "sync_runs": runs, "sync_failures": failures})
}
