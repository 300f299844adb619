package fitstore

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/app/models"
	"github.com/FlorianWeber/FitFox/app/repository"
)

// DefaultHistoryLimit caps history queries when callers pass no limit.
const DefaultHistoryLimit = 50

// ServiceStatus summarizes one service's sync state for a user.
type ServiceStatus struct {
	Connected bool     `json:"connected"`
	DataTypes []string `json:"data_types"`
}

// Store persists normalized fitness records and latest-value snapshots.
//
// Unlike the credential store there is no in-memory fallback here: fitness
// history must not silently live only in process memory, so writes fail
// (return false) when the durable backend is unavailable.
type Store struct {
	repo repository.FitnessRepository
}

// New creates a fitness data store over the given repository.
func New(repo repository.FitnessRepository) *Store {
	return &Store{repo: repo}
}

// StoreFitnessData writes one history record keyed by the current time and
// merges the latest-value snapshot for (user, service, data type). Returns
// false if either durable write fails.
func (s *Store) StoreFitnessData(userID uint, serviceID, dataType string, data any) bool {
	payload, err := models.EncodePayload(data)
	if err != nil {
		log.Errorf("[FitStore] payload encode failed for user %d %s/%s: %v", userID, serviceID, dataType, err)
		return false
	}

	now := time.Now()
	record := &models.FitnessRecord{
		UserID:     userID,
		ServiceID:  serviceID,
		DataType:   dataType,
		Payload:    payload,
		Unit:       UnitFor(dataType),
		RecordedAt: now,
	}
	if err := s.repo.CreateRecord(record); err != nil {
		log.Errorf("[FitStore] record write failed for user %d %s/%s: %v", userID, serviceID, dataType, err)
		return false
	}

	snapshot := &models.FitnessSnapshot{
		UserID:      userID,
		ServiceID:   serviceID,
		DataType:    dataType,
		LastValue:   payload,
		LastUpdated: now,
	}
	if err := s.repo.UpsertSnapshot(snapshot); err != nil {
		log.Errorf("[FitStore] snapshot merge failed for user %d %s/%s: %v", userID, serviceID, dataType, err)
		return false
	}

	return true
}

// GetLatestFitnessData returns the decoded latest value for
// (user, service, data type), or nil if nothing was ever synced.
func (s *Store) GetLatestFitnessData(userID uint, serviceID, dataType string) any {
	snapshot, err := s.repo.GetSnapshot(userID, serviceID, dataType)
	if err != nil {
		return nil
	}
	value, err := models.DecodePayload(snapshot.LastValue)
	if err != nil {
		log.Errorf("[FitStore] snapshot decode failed for user %d %s/%s: %v", userID, serviceID, dataType, err)
		return nil
	}
	return value
}

// GetAllFitnessData returns up to limit history records, most recent first.
func (s *Store) GetAllFitnessData(userID uint, serviceID, dataType string, limit int) ([]models.FitnessRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.repo.ListRecords(userID, serviceID, dataType, limit)
}

// GetSyncStatus reports, per service the user has ever touched, whether the
// connection is active and which data types have recorded snapshots. This is
// a discovery query over what actually exists, not a fixed schema walk.
func (s *Store) GetSyncStatus(userID uint) map[string]ServiceStatus {
	result := make(map[string]ServiceStatus)

	metas, err := s.repo.ListMetadataByUser(userID)
	if err != nil {
		log.Warnf("[FitStore] metadata listing failed for user %d: %v", userID, err)
	}
	for _, meta := range metas {
		result[meta.ServiceID] = ServiceStatus{
			Connected: meta.Status == models.SyncStatusActive,
			DataTypes: []string{},
		}
	}

	snapshots, err := s.repo.ListSnapshotsByUser(userID)
	if err != nil {
		log.Warnf("[FitStore] snapshot listing failed for user %d: %v", userID, err)
	}
	for _, snap := range snapshots {
		status, ok := result[snap.ServiceID]
		if !ok {
			status = ServiceStatus{DataTypes: []string{}}
		}
		status.DataTypes = append(status.DataTypes, snap.DataType)
		result[snap.ServiceID] = status
	}

	for serviceID, status := range result {
		sort.Strings(status.DataTypes)
		result[serviceID] = status
	}

	return result
}

// UnitFor maps a data type to its normalized unit. Workout and activity
// payloads are structured and carry no single unit.
func UnitFor(dataType string) string {
	switch dataType {
	case "steps", "floors":
		return "count"
	case "calories":
		return "kcal"
	case "distance":
		return "m"
	case "heartRate":
		return "bpm"
	case "sleep", "activeMinutes":
		return "min"
	default:
		return ""
	}
}
