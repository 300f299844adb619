package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/FlorianWeber/FitFox/app/models"
)

// fitnessRepository implements the FitnessRepository interface
type fitnessRepository struct {
	db *gorm.DB
}

// NewFitnessRepository creates a new fitness repository instance
func NewFitnessRepository(db *gorm.DB) FitnessRepository {
	return &fitnessRepository{db: db}
}

// CreateRecord appends one history record. History is never mutated.
func (r *fitnessRepository) CreateRecord(record *models.FitnessRecord) error {
	return r.db.Create(record).Error
}

// ListRecords returns up to limit records for (user, service, data type),
// most recent first.
func (r *fitnessRepository) ListRecords(userID uint, serviceID, dataType string, limit int) ([]models.FitnessRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.FitnessRecord
	err := r.db.Where("user_id = ? AND service_id = ? AND data_type = ?", userID, serviceID, dataType).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list fitness records: %w", err)
	}
	return records, nil
}

// UpsertSnapshot merges the latest-value document for (user, service, data type)
func (r *fitnessRepository) UpsertSnapshot(snapshot *models.FitnessSnapshot) error {
	var existing models.FitnessSnapshot
	err := r.db.Where("user_id = ? AND service_id = ? AND data_type = ?",
		snapshot.UserID, snapshot.ServiceID, snapshot.DataType).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(snapshot).Error
	}
	if err != nil {
		return err
	}

	snapshot.ID = existing.ID
	snapshot.CreatedAt = existing.CreatedAt
	return r.db.Save(snapshot).Error
}

// GetSnapshot retrieves the latest-value document for (user, service, data type)
func (r *fitnessRepository) GetSnapshot(userID uint, serviceID, dataType string) (*models.FitnessSnapshot, error) {
	var snapshot models.FitnessSnapshot
	err := r.db.Where("user_id = ? AND service_id = ? AND data_type = ?", userID, serviceID, dataType).
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshotsByUser returns all snapshots a user has, across services.
// Which services and data types exist is determined by what was ever synced.
func (r *fitnessRepository) ListSnapshotsByUser(userID uint) ([]models.FitnessSnapshot, error) {
	var snapshots []models.FitnessSnapshot
	err := r.db.Where("user_id = ?", userID).Find(&snapshots).Error
	return snapshots, err
}

// UpsertMetadata merges the per (user, service) sync metadata document
func (r *fitnessRepository) UpsertMetadata(meta *models.SyncMetadata) error {
	var existing models.SyncMetadata
	err := r.db.Where("user_id = ? AND service_id = ?", meta.UserID, meta.ServiceID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(meta).Error
	}
	if err != nil {
		return err
	}

	meta.ID = existing.ID
	meta.CreatedAt = existing.CreatedAt
	return r.db.Save(meta).Error
}

// GetMetadata retrieves sync metadata for a (user, service) pair
func (r *fitnessRepository) GetMetadata(userID uint, serviceID string) (*models.SyncMetadata, error) {
	var meta models.SyncMetadata
	err := r.db.Where("user_id = ? AND service_id = ?", userID, serviceID).First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListMetadataByUser returns sync metadata for all services a user has touched
func (r *fitnessRepository) ListMetadataByUser(userID uint) ([]models.SyncMetadata, error) {
	var metas []models.SyncMetadata
	err := r.db.Where("user_id = ?", userID).Find(&metas).Error
	return metas, err
}
