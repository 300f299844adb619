package exportstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/FlorianWeber/FitFox/internal/pkg/env"
)

// Config holds S3 configuration for Apple Health export archives
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads export store configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("EXPORT_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("EXPORT_S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("EXPORT_S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("EXPORT_S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("EXPORT_S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("EXPORT_S3_ENABLED", "false") == "true",
	}

	// Validate required fields if the export store is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("EXPORT_S3_ACCESS_KEY_ID is required when the export store is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("EXPORT_S3_SECRET_ACCESS_KEY is required when the export store is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("EXPORT_S3_BUCKET_NAME is required when the export store is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the export store is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// UserPrefix returns the object key prefix holding one user's exports
func (c *Config) UserPrefix(userID uint) string {
	return fmt.Sprintf("health-exports/%d/", userID)
}

// ObjectKey generates a standardized object key for an uploaded export
func (c *Config) ObjectKey(userID uint, uploadedAt time.Time, filename string) string {
	// Format: health-exports/{userID}/YYYY/MM/{unix}-{filename}
	return fmt.Sprintf("health-exports/%d/%04d/%02d/%d-%s",
		userID, uploadedAt.Year(), int(uploadedAt.Month()), uploadedAt.Unix(), filename)
}

// GetBucketName returns the bucket name as configured
func (c *Config) GetBucketName() string {
	return c.BucketName
}
