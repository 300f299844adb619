package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FlorianWeber/FitFox/app/models"
	"github.com/FlorianWeber/FitFox/internal/pkg/testsupport"
)

func TestStoreTokenOverwrites(t *testing.T) {
	store := New(testsupport.NewMemoryTokenRepo(), testsupport.NewMemoryFitnessRepo())

	store.StoreToken(1, "fitbit", TokenFields{AccessToken: "first"})
	store.StoreToken(1, "fitbit", TokenFields{AccessToken: "second", RefreshToken: "r2"})

	token := store.GetToken(1, "fitbit")
	assert.NotNil(t, token)
	assert.Equal(t, "second", token.AccessToken)
	assert.Equal(t, "r2", token.RefreshToken)
}

func TestGetTokenFallsBackToMemoryOnReadFailure(t *testing.T) {
	repo := testsupport.NewMemoryTokenRepo()
	store := New(repo, testsupport.NewMemoryFitnessRepo())

	store.StoreToken(7, "strava", TokenFields{AccessToken: "abc"})

	repo.FailReads = true
	token := store.GetToken(7, "strava")
	assert.NotNil(t, token)
	assert.Equal(t, "abc", token.AccessToken)
}

func TestStoreTokenSurvivesDurableOutage(t *testing.T) {
	repo := testsupport.NewMemoryTokenRepo()
	repo.FailAll = true
	store := New(repo, testsupport.NewMemoryFitnessRepo())

	// Write succeeds from the caller's perspective even with the backend down
	store.StoreToken(3, "google-fit", TokenFields{AccessToken: "mem-only"})

	token := store.GetToken(3, "google-fit")
	assert.NotNil(t, token)
	assert.Equal(t, "mem-only", token.AccessToken)
}

func TestUpdateLastSyncDate(t *testing.T) {
	fitness := testsupport.NewMemoryFitnessRepo()
	store := New(testsupport.NewMemoryTokenRepo(), fitness)

	assert.Nil(t, store.UpdateLastSyncDate(5, "fitbit"), "no token yet")

	store.StoreToken(5, "fitbit", TokenFields{AccessToken: "tok"})
	token := store.UpdateLastSyncDate(5, "fitbit")
	assert.NotNil(t, token)
	assert.NotNil(t, token.LastSyncDate)

	meta, err := fitness.GetMetadata(5, "fitbit")
	assert.NoError(t, err)
	assert.Equal(t, models.SyncStatusActive, meta.Status)
	assert.NotNil(t, meta.LastSyncDate)
}

func TestLastSyncDateSurvivesTokenRefresh(t *testing.T) {
	store := New(testsupport.NewMemoryTokenRepo(), testsupport.NewMemoryFitnessRepo())

	store.StoreToken(6, "fitbit", TokenFields{AccessToken: "old"})
	store.UpdateLastSyncDate(6, "fitbit")
	store.StoreToken(6, "fitbit", TokenFields{AccessToken: "refreshed"})

	token := store.GetToken(6, "fitbit")
	assert.NotNil(t, token)
	assert.Equal(t, "refreshed", token.AccessToken)
	assert.NotNil(t, token.LastSyncDate)
}

func TestDeleteTokenReportsMemoryOutcome(t *testing.T) {
	fitness := testsupport.NewMemoryFitnessRepo()
	store := New(testsupport.NewMemoryTokenRepo(), fitness)

	assert.False(t, store.DeleteToken(9, "strava"), "nothing stored yet")

	store.StoreToken(9, "strava", TokenFields{AccessToken: "tok"})
	assert.True(t, store.DeleteToken(9, "strava"))
	assert.Nil(t, store.GetToken(9, "strava"))

	meta, err := fitness.GetMetadata(9, "strava")
	assert.NoError(t, err)
	assert.Equal(t, models.SyncStatusDisconnected, meta.Status)
	assert.NotNil(t, meta.DisconnectedAt)
}
