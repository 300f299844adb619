// Package testsupport provides in-memory repository implementations used by
// unit tests across packages.
package testsupport

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/FlorianWeber/FitFox/app/models"
)

// ErrBackendUnavailable simulates a durable-store outage.
var ErrBackendUnavailable = errors.New("backend unavailable")

func pairKey(userID uint, serviceID string) string {
	return fmt.Sprintf("%d/%s", userID, serviceID)
}

func tripleKey(userID uint, serviceID, dataType string) string {
	return fmt.Sprintf("%d/%s/%s", userID, serviceID, dataType)
}

// MemoryTokenRepo is an in-memory TokenRepository with failure switches.
type MemoryTokenRepo struct {
	Rows      map[string]*models.ServiceToken
	FailReads bool
	FailAll   bool
}

func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{Rows: make(map[string]*models.ServiceToken)}
}

func (m *MemoryTokenRepo) Upsert(token *models.ServiceToken) error {
	if m.FailAll {
		return ErrBackendUnavailable
	}
	cp := *token
	m.Rows[pairKey(token.UserID, token.ServiceID)] = &cp
	return nil
}

func (m *MemoryTokenRepo) Get(userID uint, serviceID string) (*models.ServiceToken, error) {
	if m.FailAll || m.FailReads {
		return nil, ErrBackendUnavailable
	}
	if row, ok := m.Rows[pairKey(userID, serviceID)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemoryTokenRepo) Delete(userID uint, serviceID string) error {
	if m.FailAll {
		return ErrBackendUnavailable
	}
	delete(m.Rows, pairKey(userID, serviceID))
	return nil
}

func (m *MemoryTokenRepo) ListByUser(userID uint) ([]models.ServiceToken, error) {
	if m.FailAll || m.FailReads {
		return nil, ErrBackendUnavailable
	}
	var out []models.ServiceToken
	for _, row := range m.Rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

// MemoryFitnessRepo is an in-memory FitnessRepository with a failure switch.
type MemoryFitnessRepo struct {
	Records   []models.FitnessRecord
	Snapshots map[string]*models.FitnessSnapshot
	Metadata  map[string]*models.SyncMetadata
	FailAll   bool
}

func NewMemoryFitnessRepo() *MemoryFitnessRepo {
	return &MemoryFitnessRepo{
		Snapshots: make(map[string]*models.FitnessSnapshot),
		Metadata:  make(map[string]*models.SyncMetadata),
	}
}

func (m *MemoryFitnessRepo) CreateRecord(record *models.FitnessRecord) error {
	if m.FailAll {
		return ErrBackendUnavailable
	}
	m.Records = append(m.Records, *record)
	return nil
}

func (m *MemoryFitnessRepo) ListRecords(userID uint, serviceID, dataType string, limit int) ([]models.FitnessRecord, error) {
	if m.FailAll {
		return nil, ErrBackendUnavailable
	}
	var out []models.FitnessRecord
	for _, r := range m.Records {
		if r.UserID == userID && r.ServiceID == serviceID && r.DataType == dataType {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryFitnessRepo) UpsertSnapshot(snapshot *models.FitnessSnapshot) error {
	if m.FailAll {
		return ErrBackendUnavailable
	}
	cp := *snapshot
	m.Snapshots[tripleKey(snapshot.UserID, snapshot.ServiceID, snapshot.DataType)] = &cp
	return nil
}

func (m *MemoryFitnessRepo) GetSnapshot(userID uint, serviceID, dataType string) (*models.FitnessSnapshot, error) {
	if m.FailAll {
		return nil, ErrBackendUnavailable
	}
	if snap, ok := m.Snapshots[tripleKey(userID, serviceID, dataType)]; ok {
		cp := *snap
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemoryFitnessRepo) ListSnapshotsByUser(userID uint) ([]models.FitnessSnapshot, error) {
	if m.FailAll {
		return nil, ErrBackendUnavailable
	}
	var out []models.FitnessSnapshot
	for _, snap := range m.Snapshots {
		if snap.UserID == userID {
			out = append(out, *snap)
		}
	}
	return out, nil
}

func (m *MemoryFitnessRepo) UpsertMetadata(meta *models.SyncMetadata) error {
	if m.FailAll {
		return ErrBackendUnavailable
	}
	cp := *meta
	m.Metadata[pairKey(meta.UserID, meta.ServiceID)] = &cp
	return nil
}

func (m *MemoryFitnessRepo) GetMetadata(userID uint, serviceID string) (*models.SyncMetadata, error) {
	if m.FailAll {
		return nil, ErrBackendUnavailable
	}
	if meta, ok := m.Metadata[pairKey(userID, serviceID)]; ok {
		cp := *meta
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemoryFitnessRepo) ListMetadataByUser(userID uint) ([]models.SyncMetadata, error) {
	if m.FailAll {
		return nil, ErrBackendUnavailable
	}
	var out []models.SyncMetadata
	for _, meta := range m.Metadata {
		if meta.UserID == userID {
			out = append(out, *meta)
		}
	}
	return out, nil
}

// MemoryNotificationRepo is an in-memory NotificationRepository.
type MemoryNotificationRepo struct {
	Items []models.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{}
}

func (m *MemoryNotificationRepo) Create(notification *models.Notification) error {
	notification.ID = uint(len(m.Items) + 1)
	m.Items = append(m.Items, *notification)
	return nil
}

func (m *MemoryNotificationRepo) ListByUser(userID uint, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(m.Items) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Items[i].UserID == userID {
			out = append(out, m.Items[i])
		}
	}
	return out, nil
}

func (m *MemoryNotificationRepo) MarkAsRead(id uint) error {
	for i := range m.Items {
		if m.Items[i].ID == id {
			m.Items[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
