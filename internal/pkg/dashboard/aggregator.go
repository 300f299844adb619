package dashboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/app/models"
	"github.com/FlorianWeber/FitFox/internal/pkg/cache"
	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
)

// cacheTTL keeps dashboard reads cheap without serving stale data for long.
const cacheTTL = 5 * time.Minute

// Data types surfaced on the consolidated view.
var summaryDataTypes = []string{"steps", "activeMinutes", "calories"}

// Cache is the subset of the cache layer the aggregator needs.
type Cache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
}

// redisCache adapts the shared Redis cache singleton.
type redisCache struct{}

func (redisCache) Get(key string) (string, error) { return cache.Get(key) }
func (redisCache) Set(key string, value interface{}, expiration time.Duration) error {
	return cache.Set(key, value, expiration)
}

// RedisCache returns the aggregator cache backed by the shared Redis client.
func RedisCache() Cache { return redisCache{} }

// Activity is one recent activity entry on the dashboard.
type Activity struct {
	ServiceID  string    `json:"service_id"`
	RecordedAt time.Time `json:"recorded_at"`
	Value      any       `json:"value"`
}

// Summary is the consolidated daily view for one user.
type Summary struct {
	Date              string                            `json:"date"`
	ConnectedServices []string                          `json:"connected_services"`
	Totals            map[string]float64                `json:"totals"`
	Latest            map[string]map[string]any         `json:"latest"`
	RecentActivities  []Activity                        `json:"recent_activities"`
	SyncStatus        map[string]fitstore.ServiceStatus `json:"sync_status"`
	GeneratedAt       time.Time                         `json:"generated_at"`
}

// Aggregator builds the dashboard view from the fitness and credential
// stores, with a short-lived Redis cache in front.
type Aggregator struct {
	fitness *fitstore.Store
	creds   *credstore.Store
	cache   Cache
}

// New creates a dashboard aggregator. A nil cache disables caching.
func New(fitness *fitstore.Store, creds *credstore.Store, c Cache) *Aggregator {
	return &Aggregator{fitness: fitness, creds: creds, cache: c}
}

// Summary returns the user's consolidated view, served from cache when a
// fresh copy exists.
func (a *Aggregator) Summary(userID uint) Summary {
	key := cacheKey(userID)
	if a.cache != nil {
		if raw, err := a.cache.Get(key); err == nil && raw != "" {
			var cached Summary
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached
			}
		}
	}

	summary := a.build(userID)

	if a.cache != nil {
		if encoded, err := json.Marshal(summary); err == nil {
			if err := a.cache.Set(key, string(encoded), cacheTTL); err != nil {
				log.Warnf("[Dashboard] cache write failed for user %d: %v", userID, err)
			}
		}
	}
	return summary
}

func (a *Aggregator) build(userID uint) Summary {
	summary := Summary{
		Date:              time.Now().Format("2006-01-02"),
		ConnectedServices: []string{},
		Totals:            make(map[string]float64),
		Latest:            make(map[string]map[string]any),
		RecentActivities:  []Activity{},
		SyncStatus:        a.fitness.GetSyncStatus(userID),
		GeneratedAt:       time.Now(),
	}

	tokens := a.creds.ListServices(userID)
	for _, serviceID := range tokens {
		summary.ConnectedServices = append(summary.ConnectedServices, serviceID)
	}

	for _, dataType := range summaryDataTypes {
		perService := make(map[string]any)
		for _, serviceID := range tokens {
			value := a.fitness.GetLatestFitnessData(userID, serviceID, dataType)
			if value == nil {
				continue
			}
			perService[serviceID] = value
			if n, ok := extractNumber(value); ok {
				summary.Totals[dataType] += n
			}
		}
		if len(perService) > 0 {
			summary.Latest[dataType] = perService
		}
	}

	for _, serviceID := range tokens {
		records, err := a.fitness.GetAllFitnessData(userID, serviceID, "activities", 5)
		if err != nil {
			continue
		}
		for _, record := range records {
			value, decodeErr := models.DecodePayload(record.Payload)
			if decodeErr != nil {
				continue
			}
			summary.RecentActivities = append(summary.RecentActivities, Activity{
				ServiceID:  serviceID,
				RecordedAt: record.RecordedAt,
				Value:      value,
			})
		}
	}

	return summary
}

func cacheKey(userID uint) string {
	return fmt.Sprintf("dashboard:summary:%d", userID)
}

// extractNumber digs a single numeric reading out of a provider payload.
// Scalar values and common {total}/{value} wrappers are understood; anything
// structured beyond that contributes no total.
func extractNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case map[string]any:
		for _, field := range []string{"total", "value", "count"} {
			if inner, ok := v[field]; ok {
				return extractNumber(inner)
			}
		}
	}
	return 0, false
}
