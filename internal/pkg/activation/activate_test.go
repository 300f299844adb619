package activation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/notify"
	"github.com/FlorianWeber/FitFox/internal/pkg/syncer"
	"github.com/FlorianWeber/FitFox/internal/pkg/testsupport"
	"github.com/FlorianWeber/FitFox/internal/pkg/testsupport/fakes"
)

type fixture struct {
	coordinator *Coordinator
	creds       *credstore.Store
}

func newFixture(adapters ...*fakes.FakeAdapter) *fixture {
	tokenRepo := testsupport.NewMemoryTokenRepo()
	fitnessRepo := testsupport.NewMemoryFitnessRepo()

	creds := credstore.New(tokenRepo, fitnessRepo)
	fakeResolver := fakes.NewFakeResolver()
	for _, a := range adapters {
		fakeResolver.Adapters[string(a.ID)] = a
	}

	orchestrator := syncer.New(fakeResolver, creds, fitstore.New(fitnessRepo), notify.New(testsupport.NewMemoryNotificationRepo()))
	return &fixture{
		coordinator: New(fakeResolver, creds, orchestrator),
		creds:       creds,
	}
}

func TestActivateEveryRequestedServiceAppearsOnce(t *testing.T) {
	fx := newFixture(
		&fakes.FakeAdapter{ID: "fitbit", Configured: true, Defaults: []string{"steps"}},
		&fakes.FakeAdapter{ID: "strava", Configured: false, Missing: []string{"STRAVA_CLIENT_ID"}},
	)

	results := fx.coordinator.ActivateFitnessIntegrations(context.Background(), ActivateRequest{
		UserID:           1,
		Services:         []string{"fitbit", "strava", "peloton"},
		SecretsValidated: true,
	})

	assert.Len(t, results, 3)
	assert.Equal(t, StatusNotConnected, results["fitbit"].Status)
	assert.Equal(t, StatusNotConfigured, results["strava"].Status)
	assert.Equal(t, []string{"STRAVA_CLIENT_ID"}, results["strava"].MissingSecrets)
	// Unknown services get an error entry, never a silent skip
	assert.Equal(t, StatusError, results["peloton"].Status)
	assert.NotEmpty(t, results["peloton"].Message)
}

func TestActivateConnectAndSyncScenario(t *testing.T) {
	fitbit := &fakes.FakeAdapter{
		ID:         "fitbit",
		Configured: true,
		CallbackOK: true,
		Defaults:   []string{"steps", "sleep"},
	}
	fx := newFixture(fitbit)

	request := ActivateRequest{
		UserID:           42,
		Services:         []string{"fitbit"},
		SecretsValidated: true,
		SyncNow:          true,
	}

	// Not connected yet: the entry carries an auth URL to start the flow
	results := fx.coordinator.ActivateFitnessIntegrations(context.Background(), request)
	assert.Equal(t, StatusNotConnected, results["fitbit"].Status)
	assert.NotEmpty(t, results["fitbit"].URL)
	assert.Nil(t, results["fitbit"].SyncResult)

	// The OAuth callback lands a token
	assert.True(t, fitbit.HandleCallback(context.Background(), 42, "auth-code-123"))
	fx.creds.StoreToken(42, "fitbit", credstore.TokenFields{AccessToken: "tok"})

	results = fx.coordinator.ActivateFitnessIntegrations(context.Background(), request)
	assert.Equal(t, StatusSuccess, results["fitbit"].Status)
	assert.NotNil(t, results["fitbit"].SyncResult)
	assert.True(t, results["fitbit"].SyncResult.Success)
	assert.Len(t, results["fitbit"].SyncResult.DataTypes, 2)
}

func TestActivateConnectedWithoutSyncNow(t *testing.T) {
	fitbit := &fakes.FakeAdapter{ID: "fitbit", Configured: true, Defaults: []string{"steps"}}
	fx := newFixture(fitbit)
	fx.creds.StoreToken(7, "fitbit", credstore.TokenFields{AccessToken: "tok"})

	results := fx.coordinator.ActivateFitnessIntegrations(context.Background(), ActivateRequest{
		UserID:           7,
		Services:         []string{"fitbit"},
		SecretsValidated: true,
	})

	assert.Equal(t, StatusSuccess, results["fitbit"].Status)
	assert.Nil(t, results["fitbit"].SyncResult)
	assert.Empty(t, fitbit.FetchCalls)
}

func TestInitializeClassifiesAndCollectsMissingSecrets(t *testing.T) {
	fx := newFixture(
		&fakes.FakeAdapter{ID: "fitbit", Configured: true},
		&fakes.FakeAdapter{ID: "strava", Configured: false, Missing: []string{"STRAVA_CLIENT_ID", "STRAVA_CLIENT_SECRET"}},
		&fakes.FakeAdapter{ID: "google-fit", Configured: false, Missing: []string{"GOOGLE_FIT_CLIENT_ID"}},
	)

	var callbacks []string
	report := fx.coordinator.InitializeFitnessSystem(context.Background(), InitializeOptions{
		UserID: 1,
		OnMissingSecrets: func(serviceID string, missing []string) {
			callbacks = append(callbacks, serviceID)
		},
	})

	assert.False(t, report.Timestamp.IsZero())
	assert.Len(t, report.Results, 3)
	assert.Equal(t, StatusReady, report.Results["fitbit"].Status)
	assert.Equal(t, StatusNotConfigured, report.Results["strava"].Status)
	assert.Equal(t, StatusNotConfigured, report.Results["google-fit"].Status)
	assert.ElementsMatch(t, []string{"STRAVA_CLIENT_ID", "STRAVA_CLIENT_SECRET", "GOOGLE_FIT_CLIENT_ID"}, report.MissingSecrets)
	assert.ElementsMatch(t, []string{"strava", "google-fit"}, callbacks)
}

func TestInitializeDiagnosticsCascade(t *testing.T) {
	fitbit := &fakes.FakeAdapter{ID: "fitbit", Configured: true, Defaults: []string{"steps"}}
	fx := newFixture(fitbit)
	fx.creds.StoreToken(3, "fitbit", credstore.TokenFields{AccessToken: "tok"})

	completions := 0
	report := fx.coordinator.InitializeFitnessSystem(context.Background(), InitializeOptions{
		UserID:            3,
		Services:          []string{"fitbit"},
		EnableDiagnostics: true,
		SyncNow:           true,
		OnComplete:        func(Report) { completions++ },
	})

	// Diagnostics replace the bare ready classification with the full outcome
	assert.Equal(t, StatusSuccess, report.Results["fitbit"].Status)
	assert.NotNil(t, report.Results["fitbit"].SyncResult)
	assert.Equal(t, 1, completions, "onComplete fires exactly once")
}

func TestInitializeUnknownServiceNeverPanics(t *testing.T) {
	fx := newFixture()

	completions := 0
	report := fx.coordinator.InitializeFitnessSystem(context.Background(), InitializeOptions{
		UserID:     1,
		Services:   []string{"peloton"},
		OnComplete: func(Report) { completions++ },
	})

	assert.Equal(t, StatusError, report.Results["peloton"].Status)
	assert.Equal(t, 1, completions)
	assert.Empty(t, report.MissingSecrets)
}
