package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/notify"
	"github.com/FlorianWeber/FitFox/internal/pkg/testsupport"
	"github.com/FlorianWeber/FitFox/internal/pkg/testsupport/fakes"
	"github.com/FlorianWeber/FitFox/internal/pkg/trackers"
)

type fixture struct {
	orchestrator *Orchestrator
	creds        *credstore.Store
	fitnessRepo  *testsupport.MemoryFitnessRepo
	notifyRepo   *testsupport.MemoryNotificationRepo
	adapter      *fakes.FakeAdapter
}

func newFixture(adapter *fakes.FakeAdapter) *fixture {
	tokenRepo := testsupport.NewMemoryTokenRepo()
	fitnessRepo := testsupport.NewMemoryFitnessRepo()
	notifyRepo := testsupport.NewMemoryNotificationRepo()

	creds := credstore.New(tokenRepo, fitnessRepo)
	orchestrator := New(
		fakes.NewFakeResolver(adapter),
		creds,
		fitstore.New(fitnessRepo),
		notify.New(notifyRepo),
	)

	return &fixture{
		orchestrator: orchestrator,
		creds:        creds,
		fitnessRepo:  fitnessRepo,
		notifyRepo:   notifyRepo,
		adapter:      adapter,
	}
}

func TestSyncWithoutTokenShortCircuits(t *testing.T) {
	fx := newFixture(&fakes.FakeAdapter{ID: "fitbit", Configured: true, Defaults: []string{"steps"}})

	result := fx.orchestrator.SyncFitnessData(context.Background(), Request{UserID: 42, ServiceID: "fitbit"})

	assert.False(t, result.Success)
	assert.Empty(t, result.DataTypes)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, fx.adapter.FetchCalls, "no fetch without a token")
}

func TestSyncUnknownServiceReportsError(t *testing.T) {
	fx := newFixture(&fakes.FakeAdapter{ID: "fitbit", Configured: true})

	result := fx.orchestrator.SyncFitnessData(context.Background(), Request{UserID: 1, ServiceID: "peloton"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown fitness service")
}

func TestSyncUsesDefaultDataTypes(t *testing.T) {
	adapter := &fakes.FakeAdapter{
		ID:         "google-fit",
		Configured: true,
		Defaults:   []string{"steps", "calories", "distance"},
	}
	fx := newFixture(adapter)
	fx.creds.StoreToken(1, "google-fit", credstore.TokenFields{AccessToken: "tok"})

	result := fx.orchestrator.SyncFitnessData(context.Background(), Request{UserID: 1, ServiceID: "google-fit"})

	assert.True(t, result.Success)
	assert.Len(t, result.DataTypes, 3)
	assert.ElementsMatch(t, []string{"steps", "calories", "distance"}, adapter.FetchCalls)
}

func TestSyncPartialFailureIsolation(t *testing.T) {
	adapter := &fakes.FakeAdapter{
		ID:         "fitbit",
		Configured: true,
		FetchErrors: map[string]error{
			"calories":  errors.New("rate limited"),
			"sleep":     errors.New("rate limited"),
			"heartRate": errors.New("rate limited"),
			"floors":    errors.New("rate limited"),
		},
	}
	fx := newFixture(adapter)
	fx.creds.StoreToken(2, "fitbit", credstore.TokenFields{AccessToken: "tok"})

	result := fx.orchestrator.SyncFitnessData(context.Background(), Request{
		UserID:    2,
		ServiceID: "fitbit",
		DataTypes: []string{"steps", "calories", "sleep", "heartRate", "floors"},
	})

	// One of five landing still counts as success at the top level
	assert.True(t, result.Success)
	assert.Len(t, result.DataTypes, 5)

	syncedCount := 0
	for _, tr := range result.DataTypes {
		if tr.Synced {
			syncedCount++
		} else {
			assert.NotEmpty(t, tr.Error)
		}
	}
	assert.Equal(t, 1, syncedCount)
}

func TestSyncAllTypesFailing(t *testing.T) {
	adapter := &fakes.FakeAdapter{
		ID:          "strava",
		Configured:  true,
		FetchErrors: map[string]error{"activities": errors.New("boom"), "distance": errors.New("boom")},
	}
	fx := newFixture(adapter)
	fx.creds.StoreToken(3, "strava", credstore.TokenFields{AccessToken: "tok"})

	result := fx.orchestrator.SyncFitnessData(context.Background(), Request{
		UserID:    3,
		ServiceID: "strava",
		DataTypes: []string{"activities", "distance"},
	})

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Len(t, result.DataTypes, 2)
	assert.Empty(t, fx.notifyRepo.Items, "no notification when nothing synced")
}

func TestSyncStampsMetadataAndNotifiesOnce(t *testing.T) {
	adapter := &fakes.FakeAdapter{ID: "fitbit", Configured: true}
	fx := newFixture(adapter)
	fx.creds.StoreToken(4, "fitbit", credstore.TokenFields{AccessToken: "tok"})

	result := fx.orchestrator.SyncFitnessData(context.Background(), Request{
		UserID:    4,
		ServiceID: "fitbit",
		DataTypes: []string{"steps", "calories"},
	})

	assert.True(t, result.Success)

	token := fx.creds.GetToken(4, "fitbit")
	assert.NotNil(t, token.LastSyncDate, "last sync stamped once after the loop")

	assert.Len(t, fx.notifyRepo.Items, 1, "exactly one notification per sync")
	assert.Equal(t, "sync", fx.notifyRepo.Items[0].Type)
	assert.Contains(t, fx.notifyRepo.Items[0].Content, "2 of 2")
}

func TestSyncWritesHistoryAndSnapshot(t *testing.T) {
	adapter := &fakes.FakeAdapter{
		ID:           "google-fit",
		Configured:   true,
		FetchResults: map[string]any{"steps": map[string]any{"total": 9001}},
	}
	fx := newFixture(adapter)
	fx.creds.StoreToken(5, "google-fit", credstore.TokenFields{AccessToken: "tok"})

	fx.orchestrator.SyncFitnessData(context.Background(), Request{UserID: 5, ServiceID: "google-fit", DataTypes: []string{"steps"}})
	fx.orchestrator.SyncFitnessData(context.Background(), Request{UserID: 5, ServiceID: "google-fit", DataTypes: []string{"steps"}})

	// History keeps both writes; the latest-value snapshot stays one row
	assert.Len(t, fx.fitnessRepo.Records, 2)
	assert.Len(t, fx.fitnessRepo.Snapshots, 1)
}

func TestSyncAllOnlyTouchesConnectedServices(t *testing.T) {
	fitbit := &fakes.FakeAdapter{ID: "fitbit", Configured: true, Defaults: []string{"steps"}}
	strava := &fakes.FakeAdapter{ID: "strava", Configured: true, Defaults: []string{"activities"}}

	tokenRepo := testsupport.NewMemoryTokenRepo()
	fitnessRepo := testsupport.NewMemoryFitnessRepo()
	creds := credstore.New(tokenRepo, fitnessRepo)
	orchestrator := New(
		fakes.NewFakeResolver(fitbit, strava),
		creds,
		fitstore.New(fitnessRepo),
		notify.New(testsupport.NewMemoryNotificationRepo()),
	)

	creds.StoreToken(6, "fitbit", credstore.TokenFields{AccessToken: "tok"})

	results := orchestrator.SyncAll(context.Background(), 6)

	assert.Len(t, results, 1)
	assert.Contains(t, results, "fitbit")
	assert.True(t, results["fitbit"].Success)
	assert.Empty(t, strava.FetchCalls)
}

var _ AdapterResolver = (*trackers.Registry)(nil)
