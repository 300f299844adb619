package exportstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Client wraps the S3 client with export-archive specific functionality.
// Apple Health has no OAuth flow; its companion app uploads export archives
// here and the adapter syncs from the newest one.
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// ExportInfo describes one uploaded export archive
type ExportInfo struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewFromEnv builds the client from environment configuration. The store is
// optional: misconfiguration and connection failures are logged and yield
// nil, which keeps Apple Health in not_configured while every other service
// works normally.
func NewFromEnv() *Client {
	cfg, err := LoadConfig()
	if err != nil {
		log.Warnf("[ExportStore] Invalid configuration: %v", err)
		return nil
	}
	if !cfg.IsEnabled() {
		return nil
	}

	client, err := NewClient(cfg)
	if err != nil {
		log.Warnf("[ExportStore] Unavailable: %v", err)
		return nil
	}
	return client
}

// NewClient creates a new export store client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("export store is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to export store: %w", err)
	}

	log.Infof("[ExportStore] Initialized S3 client for bucket: %s", cfg.GetBucketName())
	return client, nil
}

// testConnection checks that the configured bucket is reachable
func (c *Client) testConnection() error {
	_, err := c.s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(c.config.GetBucketName()),
	})
	return err
}

// StoreExport uploads one export archive for a user and returns its key
func (c *Client) StoreExport(ctx context.Context, userID uint, filename string, body io.Reader) (string, error) {
	key := c.config.ObjectKey(userID, time.Now(), filename)

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.config.GetBucketName()),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	log.Infof("[ExportStore] Stored export %s for user %d", key, userID)
	return key, nil
}

// LatestExport returns metadata for the newest export a user uploaded, or
// nil when the user has none.
func (c *Client) LatestExport(ctx context.Context, userID uint) (*ExportInfo, error) {
	prefix := c.config.UserPrefix(userID)

	var latest *ExportInfo
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.config.GetBucketName()),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list exports: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			if latest == nil || obj.LastModified.After(latest.UploadedAt) {
				latest = &ExportInfo{
					Key:        *obj.Key,
					Size:       aws.ToInt64(obj.Size),
					UploadedAt: *obj.LastModified,
				}
			}
		}
	}

	return latest, nil
}

// FetchExport downloads an export archive by key
func (c *Client) FetchExport(ctx context.Context, key string) ([]byte, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.GetBucketName()),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch export %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
