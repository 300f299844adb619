package repository

import (
	"gorm.io/gorm"

	"github.com/FlorianWeber/FitFox/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// TokenRepository is the durable side of the credential store. It only
// provides primitives; fallback and degradation policy live in credstore.
type TokenRepository interface {
	Upsert(token *models.ServiceToken) error
	Get(userID uint, serviceID string) (*models.ServiceToken, error)
	Delete(userID uint, serviceID string) error
	ListByUser(userID uint) ([]models.ServiceToken, error)
}

// FitnessRepository defines durable operations for normalized fitness data:
// append-only history records, latest-value snapshots and sync metadata.
type FitnessRepository interface {
	CreateRecord(record *models.FitnessRecord) error
	ListRecords(userID uint, serviceID, dataType string, limit int) ([]models.FitnessRecord, error)
	UpsertSnapshot(snapshot *models.FitnessSnapshot) error
	GetSnapshot(userID uint, serviceID, dataType string) (*models.FitnessSnapshot, error)
	ListSnapshotsByUser(userID uint) ([]models.FitnessSnapshot, error)
	UpsertMetadata(meta *models.SyncMetadata) error
	GetMetadata(userID uint, serviceID string) (*models.SyncMetadata, error)
	ListMetadataByUser(userID uint) ([]models.SyncMetadata, error)
}

// NotificationRepository defines the interface for user notifications
type NotificationRepository interface {
	Create(notification *models.Notification) error
	ListByUser(userID uint, limit int) ([]models.Notification, error)
	MarkAsRead(id uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Token        TokenRepository
	Fitness      FitnessRepository
	Notification NotificationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Token:        NewTokenRepository(db),
		Fitness:      NewFitnessRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
