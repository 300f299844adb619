package fitstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FlorianWeber/FitFox/app/models"
	"github.com/FlorianWeber/FitFox/internal/pkg/testsupport"
)

func TestStoreFitnessDataWritesHistoryAndSnapshot(t *testing.T) {
	repo := testsupport.NewMemoryFitnessRepo()
	store := New(repo)

	ok := store.StoreFitnessData(1, "google-fit", "steps", map[string]any{"count": 8500})
	assert.True(t, ok)
	assert.Len(t, repo.Records, 1)
	assert.Equal(t, "count", repo.Records[0].Unit)

	latest := store.GetLatestFitnessData(1, "google-fit", "steps")
	assert.NotNil(t, latest)
	value := latest.(map[string]any)
	assert.Equal(t, float64(8500), value["count"])
}

func TestStoreFitnessDataFailsWhenBackendDown(t *testing.T) {
	repo := testsupport.NewMemoryFitnessRepo()
	repo.FailAll = true
	store := New(repo)

	// No in-memory fallback for fitness data: the write must report failure
	assert.False(t, store.StoreFitnessData(1, "fitbit", "calories", 1800))
	assert.Nil(t, store.GetLatestFitnessData(1, "fitbit", "calories"))
}

func TestHistoryOrderingAndLimit(t *testing.T) {
	repo := testsupport.NewMemoryFitnessRepo()
	store := New(repo)

	base := time.Now()
	for i := 0; i < 3; i++ {
		repo.Records = append(repo.Records, models.FitnessRecord{
			UserID:     2,
			ServiceID:  "strava",
			DataType:   "distance",
			Payload:    fmt.Sprintf("%d", i),
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	records, err := store.GetAllFitnessData(2, "strava", "distance", 2)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "2", records[0].Payload)
	assert.Equal(t, "1", records[1].Payload)
	assert.True(t, records[0].RecordedAt.After(records[1].RecordedAt))
}

func TestGetSyncStatusDiscoversServices(t *testing.T) {
	repo := testsupport.NewMemoryFitnessRepo()
	store := New(repo)

	now := time.Now()
	repo.Metadata["4/fitbit"] = &models.SyncMetadata{UserID: 4, ServiceID: "fitbit", Status: models.SyncStatusActive, LastSyncDate: &now}
	repo.Metadata["4/strava"] = &models.SyncMetadata{UserID: 4, ServiceID: "strava", Status: models.SyncStatusDisconnected}
	store.StoreFitnessData(4, "fitbit", "steps", 100)
	store.StoreFitnessData(4, "fitbit", "sleep", 420)

	status := store.GetSyncStatus(4)
	assert.Len(t, status, 2)
	assert.True(t, status["fitbit"].Connected)
	assert.Equal(t, []string{"sleep", "steps"}, status["fitbit"].DataTypes)
	assert.False(t, status["strava"].Connected)
	assert.Empty(t, status["strava"].DataTypes)
}

func TestUnitFor(t *testing.T) {
	assert.Equal(t, "count", UnitFor("steps"))
	assert.Equal(t, "kcal", UnitFor("calories"))
	assert.Equal(t, "bpm", UnitFor("heartRate"))
	assert.Equal(t, "min", UnitFor("activeMinutes"))
	assert.Equal(t, "", UnitFor("workout"))
}
