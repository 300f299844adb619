package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/app/models"
	"github.com/FlorianWeber/FitFox/internal/pkg/constants"
	"github.com/FlorianWeber/FitFox/internal/pkg/env"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/metrics/counter"
	"github.com/FlorianWeber/FitFox/internal/pkg/security"
	"github.com/FlorianWeber/FitFox/internal/pkg/syncer"
	"github.com/FlorianWeber/FitFox/internal/pkg/trackers"
	"github.com/FlorianWeber/FitFox/internal/pkg/upload"
)

const (
	exportTokenTTL      = 15 * time.Minute
	exportMaxBytes      = 100 * 1024 * 1024
	exportSniffHeadSize = 512
)

type syncRequest struct {
	DataTypes    []string `json:"data_types"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	ForceRefresh bool     `json:"force_refresh"`
}

// HandleTrackerList returns every supported service with its configuration
// and connection state for the current user.
func HandleTrackerList(c *fiber.Ctx) error {
	userID := currentUserID(c)

	services := make([]fiber.Map, 0, 4)
	for _, adapter := range trackerRegistry.All() {
		serviceID := string(adapter.ServiceID())
		entry := fiber.Map{
			"service_id":   serviceID,
			"display_name": adapter.DisplayName(),
			"configured":   adapter.IsConfigured(),
			"connected":    credStore.HasToken(userID, serviceID),
			"data_types":   adapter.DefaultDataTypes(),
		}
		if missing := adapter.MissingSecrets(); len(missing) > 0 {
			entry["missing_secrets"] = missing
		}
		if token := credStore.GetToken(userID, serviceID); token != nil {
			entry["last_sync_date"] = formatTimePtr(token.LastSyncDate)
		}
		services = append(services, entry)
	}

	return c.JSON(fiber.Map{"success": true, "services": services})
}

// HandleTrackerAuthURL returns the provider authorization URL to start the
// connect flow for one service.
func HandleTrackerAuthURL(c *fiber.Ctx) error {
	serviceID := c.Params("service")

	adapter, err := trackerRegistry.Get(serviceID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": err.Error()})
	}

	url, err := adapter.AuthURL(currentUserID(c))
	if err != nil {
		return c.JSON(fiber.Map{
			"success":         false,
			"status":          "not_configured",
			"message":         err.Error(),
			"missing_secrets": adapter.MissingSecrets(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "url": url})
}

// HandleTrackerCallback completes the OAuth flow. The provider redirects
// here; the state parameter is the only correlation back to the user, so the
// route must stay public.
func HandleTrackerCallback(c *fiber.Ctx) error {
	serviceID := c.Params("service")

	adapter, err := trackerRegistry.Get(serviceID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": err.Error()})
	}

	userID, err := trackers.DecodeState(c.Query("state"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid state parameter"})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing authorization code"})
	}

	if !adapter.HandleCallback(c.Context(), userID, code) {
		return c.JSON(fiber.Map{"success": false, "message": "Token exchange failed"})
	}

	return c.JSON(fiber.Map{"success": true, "service_id": serviceID})
}

// HandleAppleHealthConnect starts the export-upload flow. Instead of an
// OAuth redirect the caller gets a short-lived signed upload ticket.
func HandleAppleHealthConnect(c *fiber.Ctx) error {
	userID, err := trackers.DecodeState(c.Query("state"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid state parameter"})
	}

	token, err := security.GenerateExportToken(userID, string(trackers.ServiceAppleHealth), exportMaxBytes, exportTokenTTL, env.GetEnv("APP_SECRET", ""))
	if err != nil {
		log.Errorf("[Tracker] export token generation failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create upload ticket"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"upload_url": constants.ExportUploadRoute,
		"token":      token,
		"expires_in": int(exportTokenTTL.Seconds()),
	})
}

// HandleAppleHealthUpload accepts one health export archive authorized by an
// upload ticket and completes the Apple Health connection.
func HandleAppleHealthUpload(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		token = c.Get("X-Export-Token")
	}

	claims, err := security.VerifyExportToken(token, env.GetEnv("APP_SECRET", ""))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": err.Error()})
	}

	fileHeader, err := c.FormFile("export")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing export file"})
	}
	if fileHeader.Size > claims.MaxBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "too_large", "message": "Export exceeds the allowed size"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read export"})
	}
	defer file.Close()

	head := make([]byte, exportSniffHeadSize)
	n, _ := file.Read(head)
	if _, err := upload.ValidateExportBySniff(fileHeader.Filename, head[:n]); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	if _, err := file.Seek(0, 0); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read export"})
	}

	if exportStore == nil {
		return c.JSON(fiber.Map{"success": false, "status": "not_configured", "message": "Export store is not configured"})
	}

	key, err := exportStore.StoreExport(c.Context(), claims.UserID, fileHeader.Filename, file)
	if err != nil {
		log.Errorf("[Tracker] export upload failed for user %d: %v", claims.UserID, err)
		return c.JSON(fiber.Map{"success": false, "message": "Failed to store export"})
	}

	adapter, err := trackerRegistry.Get(string(trackers.ServiceAppleHealth))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}
	if !adapter.HandleCallback(c.Context(), claims.UserID, token) {
		return c.JSON(fiber.Map{"success": false, "message": "Failed to register connection"})
	}

	return c.JSON(fiber.Map{"success": true, "export_key": key})
}

// HandleTrackerSync runs one sync for the current user and service. Expected
// failures come back as a structured result, never a non-2xx response.
func HandleTrackerSync(c *fiber.Ctx) error {
	serviceID := c.Params("service")
	userID := currentUserID(c)

	var body syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
		}
	}

	req := syncer.Request{
		UserID:       userID,
		ServiceID:    serviceID,
		DataTypes:    body.DataTypes,
		ForceRefresh: body.ForceRefresh,
	}
	if body.StartDate != "" {
		if t, err := time.Parse(time.RFC3339, body.StartDate); err == nil {
			req.StartDate = t
		}
	}
	if body.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, body.EndDate); err == nil {
			req.EndDate = t
		}
	}

	result := syncOrchestrator.SyncFitnessData(c.Context(), req)
	recordSyncOutcome(serviceID, result.Success)

	return c.JSON(fiber.Map{"success": result.Success, "result": result})
}

// HandleSyncAll syncs every connected service for the current user.
func HandleSyncAll(c *fiber.Ctx) error {
	results := syncOrchestrator.SyncAll(c.Context(), currentUserID(c))

	allOK := true
	for serviceID, result := range results {
		recordSyncOutcome(serviceID, result.Success)
		if !result.Success {
			allOK = false
		}
	}

	return c.JSON(fiber.Map{"success": allOK, "results": results})
}

// HandleTrackerDisconnect revokes and removes the service connection.
func HandleTrackerDisconnect(c *fiber.Ctx) error {
	serviceID := c.Params("service")

	adapter, err := trackerRegistry.Get(serviceID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": err.Error()})
	}

	removed := adapter.Disconnect(c.Context(), currentUserID(c))
	return c.JSON(fiber.Map{"success": removed, "service_id": serviceID})
}

// HandleSyncStatus reports per-service connection state and recorded data
// types for the current user.
func HandleSyncStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "status": fitStore.GetSyncStatus(currentUserID(c))})
}

// HandleTrackerData returns the latest value for one data type.
func HandleTrackerData(c *fiber.Ctx) error {
	serviceID := c.Params("service")
	dataType := c.Params("dataType")

	value := fitStore.GetLatestFitnessData(currentUserID(c), serviceID, dataType)
	if value == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No data recorded yet"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"service_id": serviceID,
		"data_type":  dataType,
		"unit":       fitstore.UnitFor(dataType),
		"value":      value,
	})
}

// HandleTrackerHistory returns recorded history, most recent first.
func HandleTrackerHistory(c *fiber.Ctx) error {
	serviceID := c.Params("service")
	dataType := c.Params("dataType")

	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	records, err := fitStore.GetAllFitnessData(currentUserID(c), serviceID, dataType, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load history"})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, record := range records {
		value, decodeErr := models.DecodePayload(record.Payload)
		if decodeErr != nil {
			continue
		}
		history = append(history, fiber.Map{
			"recorded_at": record.RecordedAt.UTC().Format(time.RFC3339),
			"unit":        record.Unit,
			"value":       value,
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"service_id": serviceID,
		"data_type":  dataType,
		"count":      len(history),
		"history":    history,
	})
}

func recordSyncOutcome(serviceID string, success bool) {
	var err error
	if success {
		err = counter.AddSyncRun(serviceID)
	} else {
		err = counter.AddSyncFailure(serviceID)
	}
	if err != nil {
		log.Debugf("[Tracker] sync counter update failed for %s: %v", serviceID, err)
	}
}
