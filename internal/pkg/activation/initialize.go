package activation

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// InitializeOptions configures one system initialization run.
type InitializeOptions struct {
	UserID            uint     `json:"user_id"`
	Services          []string `json:"services,omitempty"`
	EnableDiagnostics bool     `json:"enable_diagnostics"`
	SyncNow           bool     `json:"sync_now"`

	// OnMissingSecrets runs once per under-configured service.
	OnMissingSecrets func(serviceID string, missing []string) `json:"-"`
	// OnComplete runs exactly once with the final report, regardless of
	// partial failures.
	OnComplete func(Report) `json:"-"`
}

// Report is the structured outcome of an initialization run. Total failure
// across all services is still a report, never an error return.
type Report struct {
	Timestamp      time.Time                `json:"timestamp"`
	Results        map[string]ServiceResult `json:"results"`
	MissingSecrets []string                 `json:"missing_secrets"`
}

// InitializeFitnessSystem classifies every service by configuration status,
// collects missing secret names, and optionally cascades into the activation
// flow for the services that are ready.
func (c *Coordinator) InitializeFitnessSystem(ctx context.Context, opts InitializeOptions) Report {
	report := Report{
		Timestamp:      time.Now(),
		Results:        make(map[string]ServiceResult),
		MissingSecrets: []string{},
	}
	defer func() {
		if opts.OnComplete != nil {
			opts.OnComplete(report)
		}
	}()

	services := opts.Services
	if len(services) == 0 {
		for _, adapter := range c.resolver.All() {
			services = append(services, string(adapter.ServiceID()))
		}
	}

	var ready []string
	for _, serviceID := range services {
		adapter, err := c.resolver.Get(serviceID)
		if err != nil {
			report.Results[serviceID] = ServiceResult{Status: StatusError, Message: err.Error()}
			continue
		}

		if !adapter.IsConfigured() {
			missing := adapter.MissingSecrets()
			report.Results[serviceID] = ServiceResult{
				Status:         StatusNotConfigured,
				MissingSecrets: missing,
			}
			report.MissingSecrets = append(report.MissingSecrets, missing...)
			if opts.OnMissingSecrets != nil {
				opts.OnMissingSecrets(serviceID, missing)
			}
			continue
		}

		report.Results[serviceID] = ServiceResult{Status: StatusReady}
		ready = append(ready, serviceID)
	}

	if opts.EnableDiagnostics && len(ready) > 0 {
		log.Infof("[Activation] running diagnostics for user %d across %d ready services", opts.UserID, len(ready))
		activated := c.ActivateFitnessIntegrations(ctx, ActivateRequest{
			UserID:           opts.UserID,
			Services:         ready,
			SecretsValidated: true,
			SyncNow:          opts.SyncNow,
		})
		for serviceID, result := range activated {
			report.Results[serviceID] = result
		}
	}

	return report
}
