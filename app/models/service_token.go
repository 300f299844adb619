package models

import "time"

// ServiceToken stores a user's connection to an external fitness service
// (Google Fit, Fitbit, Strava, Apple Health). At most one row exists per
// (user, service) pair; storing again overwrites the previous token.
type ServiceToken struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index:user_service,unique" json:"user_id"`
	ServiceID    string     `gorm:"index:user_service,unique;type:varchar(50)" json:"service_id"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	LastSyncDate *time.Time `gorm:"type:timestamp;default:null" json:"last_sync_date,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
