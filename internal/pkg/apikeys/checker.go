package apikeys

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FlorianWeber/FitFox/internal/pkg/env"
)

// QuotaChecker verifies an API key against its upstream service and reports
// whatever quota data the service returns.
type QuotaChecker interface {
	Check(ctx context.Context, capability, key string) (map[string]any, error)
}

// HTTPQuotaChecker probes the configured verification endpoint with a bearer
// key. The endpoint base comes from API_KEY_VERIFY_URL; the capability is
// appended as a path segment.
type HTTPQuotaChecker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPQuotaChecker builds a checker over API_KEY_VERIFY_URL.
func NewHTTPQuotaChecker() *HTTPQuotaChecker {
	return &HTTPQuotaChecker{
		baseURL: env.GetEnv("API_KEY_VERIFY_URL", ""),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPQuotaChecker) Check(ctx context.Context, capability, key string) (map[string]any, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("API_KEY_VERIFY_URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+capability, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quota check for %s failed: %w", capability, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quota check for %s returned status %d", capability, resp.StatusCode)
	}

	var quota map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&quota); err != nil {
		return nil, fmt.Errorf("quota check for %s returned invalid JSON: %w", capability, err)
	}
	return quota, nil
}
