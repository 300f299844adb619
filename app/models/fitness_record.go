package models

import (
	"encoding/json"
	"time"
)

// Sync metadata status values
const (
	SyncStatusActive       = "active"
	SyncStatusDisconnected = "disconnected"
)

// FitnessRecord is one normalized fitness data point. RecordedAt is the
// write time of the record, not the measurement time; providers report
// their own timestamps inside the payload.
type FitnessRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index:rec_lookup" json:"user_id"`
	ServiceID  string    `gorm:"index:rec_lookup;type:varchar(50)" json:"service_id"`
	DataType   string    `gorm:"index:rec_lookup;type:varchar(50)" json:"data_type"`
	Payload    string    `gorm:"type:json" json:"payload"`
	Unit       string    `gorm:"type:varchar(50);default:null" json:"unit,omitempty"`
	RecordedAt time.Time `gorm:"index" json:"recorded_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// FitnessSnapshot is the denormalized "latest value" pointer per
// (user, service, data type). Overwritten on every successful sync so
// current-value reads never scan history.
type FitnessSnapshot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index:snap_lookup,unique" json:"user_id"`
	ServiceID   string    `gorm:"index:snap_lookup,unique;type:varchar(50)" json:"service_id"`
	DataType    string    `gorm:"index:snap_lookup,unique;type:varchar(50)" json:"data_type"`
	LastValue   string    `gorm:"type:json" json:"last_value"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncMetadata tracks per (user, service) connection status for cheap
// dashboard reads, independent of the token row (no secrets in here).
type SyncMetadata struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index:meta_lookup,unique" json:"user_id"`
	ServiceID      string     `gorm:"index:meta_lookup,unique;type:varchar(50)" json:"service_id"`
	Status         string     `gorm:"type:varchar(50)" json:"status" validate:"oneof=active disconnected"`
	LastSyncDate   *time.Time `gorm:"type:timestamp;default:null" json:"last_sync_date,omitempty"`
	DisconnectedAt *time.Time `gorm:"type:timestamp;default:null" json:"disconnected_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName keeps the table singular-free; gorm's pluralizer mangles
// "metadata".
func (SyncMetadata) TableName() string {
	return "sync_metadata"
}

// EncodePayload serializes an arbitrary provider value for storage.
func EncodePayload(value any) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodePayload deserializes a stored payload into a generic value.
func DecodePayload(payload string) (any, error) {
	if payload == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, err
	}
	return v, nil
}
