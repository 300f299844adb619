package activation

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/syncer"
)

// Service statuses reported by the coordinator.
const (
	StatusSuccess       = "success"
	StatusNotConnected  = "not_connected"
	StatusNotConfigured = "not_configured"
	StatusReady         = "ready"
	StatusError         = "error"
)

// ActivateRequest names the services to bring up for one user.
type ActivateRequest struct {
	UserID           uint     `json:"user_id"`
	Services         []string `json:"services"`
	SecretsValidated bool     `json:"secrets_validated"`
	SyncNow          bool     `json:"sync_now"`
}

// ServiceResult is one service's activation outcome. Expected failures
// (missing config, missing token, unknown service) land here as statuses,
// never as errors to the caller.
type ServiceResult struct {
	Status         string         `json:"status"`
	Message        string         `json:"message,omitempty"`
	URL            string         `json:"url,omitempty"`
	MissingSecrets []string       `json:"missing_secrets,omitempty"`
	SyncResult     *syncer.Result `json:"sync_result,omitempty"`
}

// Coordinator drives activation and initialization across service adapters.
type Coordinator struct {
	resolver syncer.AdapterResolver
	creds    *credstore.Store
	syncer   *syncer.Orchestrator
}

// New creates an activation coordinator.
func New(resolver syncer.AdapterResolver, creds *credstore.Store, orchestrator *syncer.Orchestrator) *Coordinator {
	return &Coordinator{resolver: resolver, creds: creds, syncer: orchestrator}
}

// ActivateFitnessIntegrations walks the requested services and reports each
// one's state. Every requested service appears in the result map exactly
// once; unknown identifiers get an error entry instead of being skipped.
func (c *Coordinator) ActivateFitnessIntegrations(ctx context.Context, req ActivateRequest) map[string]ServiceResult {
	if !req.SecretsValidated {
		log.Warnf("[Activation] activating for user %d without validated secrets", req.UserID)
	}

	results := make(map[string]ServiceResult, len(req.Services))
	for _, serviceID := range req.Services {
		results[serviceID] = c.activateOne(ctx, req, serviceID)
	}
	return results
}

func (c *Coordinator) activateOne(ctx context.Context, req ActivateRequest, serviceID string) ServiceResult {
	adapter, err := c.resolver.Get(serviceID)
	if err != nil {
		return ServiceResult{Status: StatusError, Message: err.Error()}
	}

	if !adapter.IsConfigured() {
		return ServiceResult{
			Status:         StatusNotConfigured,
			Message:        fmt.Sprintf("%s is missing required secrets", adapter.DisplayName()),
			MissingSecrets: adapter.MissingSecrets(),
		}
	}

	if c.creds.GetToken(req.UserID, serviceID) == nil {
		result := ServiceResult{
			Status:  StatusNotConnected,
			Message: fmt.Sprintf("no %s connection yet", adapter.DisplayName()),
		}
		if url, urlErr := adapter.AuthURL(req.UserID); urlErr == nil {
			result.URL = url
		}
		return result
	}

	result := ServiceResult{Status: StatusSuccess}
	if req.SyncNow {
		syncResult := c.syncer.SyncFitnessData(ctx, syncer.Request{UserID: req.UserID, ServiceID: serviceID})
		result.SyncResult = &syncResult
	}
	return result
}
