package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/notify"
	"github.com/FlorianWeber/FitFox/internal/pkg/trackers"
)

// defaultSyncWindow is used when callers pass no date range.
const defaultSyncWindow = 7 * 24 * time.Hour

// AdapterResolver resolves service identifiers to adapters. Satisfied by
// *trackers.Registry.
type AdapterResolver interface {
	Get(serviceID string) (trackers.Adapter, error)
	All() []trackers.Adapter
}

// Request describes one sync invocation.
type Request struct {
	UserID       uint      `json:"user_id"`
	ServiceID    string    `json:"service_id"`
	DataTypes    []string  `json:"data_types,omitempty"`
	StartDate    time.Time `json:"start_date,omitempty"`
	EndDate      time.Time `json:"end_date,omitempty"`
	ForceRefresh bool      `json:"force_refresh,omitempty"`
}

// TypeResult reports one data type's outcome within a sync.
type TypeResult struct {
	Synced bool   `json:"synced"`
	Error  string `json:"error,omitempty"`
}

// Result is the structured outcome of one sync. Success follows OR
// semantics: one data type landing is enough, with per-type detail kept
// for inspection. Expected failures are reported here, never as errors.
type Result struct {
	RunID     string                `json:"run_id"`
	UserID    uint                  `json:"user_id"`
	ServiceID string                `json:"service_id"`
	Success   bool                  `json:"success"`
	SyncedAt  time.Time             `json:"synced_at"`
	DataTypes map[string]TypeResult `json:"data_types"`
	Error     string                `json:"error,omitempty"`
}

// Orchestrator pulls data from service adapters, normalizes it through the
// fitness store and maintains last-sync metadata.
type Orchestrator struct {
	resolver AdapterResolver
	creds    *credstore.Store
	fitness  *fitstore.Store
	notifier *notify.Notifier
}

// New creates a sync orchestrator.
func New(resolver AdapterResolver, creds *credstore.Store, fitness *fitstore.Store, notifier *notify.Notifier) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		creds:    creds,
		fitness:  fitness,
		notifier: notifier,
	}
}

// SyncFitnessData syncs the requested data types for one (user, service)
// pair. Each data type is fetched and persisted independently; one failing
// type never aborts its siblings.
func (o *Orchestrator) SyncFitnessData(ctx context.Context, req Request) Result {
	result := Result{
		RunID:     uuid.NewString(),
		UserID:    req.UserID,
		ServiceID: req.ServiceID,
		SyncedAt:  time.Now(),
		DataTypes: make(map[string]TypeResult),
	}

	adapter, err := o.resolver.Get(req.ServiceID)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if o.creds.GetToken(req.UserID, req.ServiceID) == nil {
		result.Error = fmt.Sprintf("no %s connection for user %d", req.ServiceID, req.UserID)
		return result
	}

	dataTypes := req.DataTypes
	if len(dataTypes) == 0 {
		dataTypes = adapter.DefaultDataTypes()
	}

	end := req.EndDate
	if end.IsZero() {
		end = time.Now()
	}
	start := req.StartDate
	if start.IsZero() {
		start = end.Add(-defaultSyncWindow)
	}

	if req.ForceRefresh {
		log.Debugf("[Syncer] force refresh requested for user %d service %s", req.UserID, req.ServiceID)
	}

	synced := 0
	for _, dataType := range dataTypes {
		data, fetchErr := adapter.FetchData(ctx, req.UserID, dataType, start, end)
		if fetchErr != nil {
			log.Warnf("[Syncer] %s/%s fetch failed for user %d: %v", req.ServiceID, dataType, req.UserID, fetchErr)
			result.DataTypes[dataType] = TypeResult{Error: fetchErr.Error()}
			continue
		}

		if !o.fitness.StoreFitnessData(req.UserID, req.ServiceID, dataType, data) {
			result.DataTypes[dataType] = TypeResult{Error: "failed to persist fitness data"}
			continue
		}

		result.DataTypes[dataType] = TypeResult{Synced: true}
		synced++
	}

	result.Success = synced > 0
	if !result.Success {
		result.Error = fmt.Sprintf("all %d data types failed to sync", len(dataTypes))
		return result
	}

	// One metadata stamp and one notification per sync, regardless of how
	// many data types landed.
	o.creds.UpdateLastSyncDate(req.UserID, req.ServiceID)
	o.notifier.Notify(req.UserID, "sync",
		fmt.Sprintf("%s sync complete: %d of %d data types updated", adapter.DisplayName(), synced, len(dataTypes)))

	return result
}

// SyncAll runs a sync for every service the user has a token for. Services
// run concurrently; there is no ordering guarantee between them.
func (o *Orchestrator) SyncAll(ctx context.Context, userID uint) map[string]Result {
	results := make(map[string]Result)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, adapter := range o.resolver.All() {
		serviceID := string(adapter.ServiceID())
		if o.creds.GetToken(userID, serviceID) == nil {
			continue
		}

		wg.Add(1)
		go func(serviceID string) {
			defer wg.Done()
			result := o.SyncFitnessData(ctx, Request{UserID: userID, ServiceID: serviceID})
			mu.Lock()
			results[serviceID] = result
			mu.Unlock()
		}(serviceID)
	}

	wg.Wait()
	return results
}
