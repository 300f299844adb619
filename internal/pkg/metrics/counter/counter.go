package counter

import (
	"context"
	"strconv"

	"github.com/FlorianWeber/FitFox/internal/pkg/cache"
)

const (
	syncRunsKey     = "sync:counters:runs"
	syncFailuresKey = "sync:counters:failures"
)

// AddSyncRun increments the completed-sync counter for a service in Redis
func AddSyncRun(serviceID string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, syncRunsKey, serviceID, 1).Err()
}

// AddSyncFailure increments the failed-sync counter for a service in Redis
func AddSyncFailure(serviceID string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, syncFailuresKey, serviceID, 1).Err()
}

// SyncTotals returns per-service run and failure counts for status pages.
func SyncTotals() (map[string]int64, map[string]int64, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	runs, err := rdb.HGetAll(ctx, syncRunsKey).Result()
	if err != nil {
		return nil, nil, err
	}
	failures, err := rdb.HGetAll(ctx, syncFailuresKey).Result()
	if err != nil {
		return nil, nil, err
	}

	return parseCounts(runs), parseCounts(failures), nil
}

func parseCounts(raw map[string]string) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for service, value := range raw {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			out[service] = n
		}
	}
	return out
}
