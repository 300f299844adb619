package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/FlorianWeber/FitFox/app/models"
)

// tokenRepository implements the TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository instance
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Upsert stores the token for a (user, service) pair, replacing any
// previous row. The unique index on (user_id, service_id) enforces the
// at-most-one-token invariant.
func (r *tokenRepository) Upsert(token *models.ServiceToken) error {
	var existing models.ServiceToken
	err := r.db.Where("user_id = ? AND service_id = ?", token.UserID, token.ServiceID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(token).Error
	}
	if err != nil {
		return err
	}

	token.ID = existing.ID
	token.CreatedAt = existing.CreatedAt
	return r.db.Save(token).Error
}

// Get retrieves the token for a (user, service) pair
func (r *tokenRepository) Get(userID uint, serviceID string) (*models.ServiceToken, error) {
	var token models.ServiceToken
	err := r.db.Where("user_id = ? AND service_id = ?", userID, serviceID).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Delete removes the token for a (user, service) pair
func (r *tokenRepository) Delete(userID uint, serviceID string) error {
	return r.db.Where("user_id = ? AND service_id = ?", userID, serviceID).Delete(&models.ServiceToken{}).Error
}

// ListByUser returns all stored tokens for a user
func (r *tokenRepository) ListByUser(userID uint) ([]models.ServiceToken, error) {
	var tokens []models.ServiceToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}
