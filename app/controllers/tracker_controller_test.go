package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/FlorianWeber/FitFox/internal/pkg/constants"
	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/env"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/notify"
	"github.com/FlorianWeber/FitFox/internal/pkg/syncer"
	"github.com/FlorianWeber/FitFox/internal/pkg/testsupport"
	"github.com/FlorianWeber/FitFox/internal/pkg/trackers"
	"github.com/FlorianWeber/FitFox/internal/pkg/usercontext"
)

func newTestApp(t *testing.T, vars map[string]string) (*fiber.App, *credstore.Store, *fitstore.Store) {
	t.Helper()

	prev := env.Env
	env.Env = vars
	t.Cleanup(func() { env.Env = prev })

	tokenRepo := testsupport.NewMemoryTokenRepo()
	fitnessRepo := testsupport.NewMemoryFitnessRepo()

	creds := credstore.New(tokenRepo, fitnessRepo)
	fitness := fitstore.New(fitnessRepo)
	registry := trackers.NewRegistry(creds, nil)
	orchestrator := syncer.New(registry, creds, fitness, notify.New(testsupport.NewMemoryNotificationRepo()))

	InitializeTrackerController(registry, creds, fitness, orchestrator, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{UserID: 42, Username: "tester", IsLoggedIn: true})
		return c.Next()
	})
	app.Get("/api/v1/trackers", HandleTrackerList)
	app.Get("/api/v1/trackers/:service/auth-url", HandleTrackerAuthURL)
	app.Get(constants.TrackerCallbackRoute, HandleTrackerCallback)
	app.Get("/api/v1/sync-status", HandleSyncStatus)
	app.Get("/api/v1/trackers/:service/data/:dataType", HandleTrackerData)

	return app, creds, fitness
}

func decodeBody(t *testing.T, resp io.Reader) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(resp).Decode(&body))
	return body
}

func TestTrackerListReportsAllServices(t *testing.T) {
	app, creds, _ := newTestApp(t, map[string]string{
		"FITBIT_CLIENT_ID":     "id",
		"FITBIT_CLIENT_SECRET": "secret",
	})
	creds.StoreToken(42, "fitbit", credstore.TokenFields{AccessToken: "tok"})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	services := body["services"].([]any)
	assert.Len(t, services, 4)

	var fitbit map[string]any
	for _, raw := range services {
		entry := raw.(map[string]any)
		if entry["service_id"] == "fitbit" {
			fitbit = entry
		}
	}
	assert.Equal(t, true, fitbit["configured"])
	assert.Equal(t, true, fitbit["connected"])
}

func TestAuthURLUnknownServiceIs404(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]string{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers/peloton/auth-url", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAuthURLUnconfiguredServiceIsBusinessOutcome(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]string{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers/strava/auth-url", nil))
	assert.NoError(t, err)
	// Partial-failure outcomes stay 200-shaped
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_configured", body["status"])
	assert.NotEmpty(t, body["missing_secrets"])
}

func TestAuthURLConfiguredService(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]string{
		"STRAVA_CLIENT_ID":     "id",
		"STRAVA_CLIENT_SECRET": "secret",
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers/strava/auth-url", nil))
	assert.NoError(t, err)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["url"].(string), "client_id=id")
}

func TestCallbackRejectsInvalidState(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]string{
		"FITBIT_CLIENT_ID":     "id",
		"FITBIT_CLIENT_SECRET": "secret",
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers/fitbit/callback?code=abc&state=garbage", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCallbackRequiresCode(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]string{
		"FITBIT_CLIENT_ID":     "id",
		"FITBIT_CLIENT_SECRET": "secret",
	})

	state := trackers.EncodeState(42)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers/fitbit/callback?state="+state, nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSyncStatusEndpoint(t *testing.T) {
	app, _, fitness := newTestApp(t, map[string]string{})
	fitness.StoreFitnessData(42, "fitbit", "steps", map[string]any{"total": 100})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/sync-status", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	status := body["status"].(map[string]any)
	assert.Contains(t, status, "fitbit")
}

func TestTrackerDataNotFound(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]string{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers/fitbit/data/steps", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestTrackerDataReturnsLatest(t *testing.T) {
	app, _, fitness := newTestApp(t, map[string]string{})
	fitness.StoreFitnessData(42, "fitbit", "steps", map[string]any{"total": 8200})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/trackers/fitbit/data/steps", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "count", body["unit"])
	assert.Equal(t, "steps", body["data_type"])
}
