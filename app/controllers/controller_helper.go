package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/FlorianWeber/FitFox/internal/pkg/activation"
	"github.com/FlorianWeber/FitFox/internal/pkg/apikeys"
	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/dashboard"
	"github.com/FlorianWeber/FitFox/internal/pkg/exportstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/syncer"
	"github.com/FlorianWeber/FitFox/internal/pkg/trackers"
	"github.com/FlorianWeber/FitFox/internal/pkg/usercontext"
)

// Package-level collaborators, wired once at bootstrap.
var (
	trackerRegistry     *trackers.Registry
	credStore           *credstore.Store
	fitStore            *fitstore.Store
	syncOrchestrator    *syncer.Orchestrator
	coordinator         *activation.Coordinator
	keyManager          *apikeys.Manager
	dashboardAggregator *dashboard.Aggregator
	exportStore         *exportstore.Client
)

// InitializeTrackerController wires the tracker and sync handlers.
func InitializeTrackerController(registry *trackers.Registry, creds *credstore.Store, fitness *fitstore.Store, orchestrator *syncer.Orchestrator, exports *exportstore.Client) {
	trackerRegistry = registry
	credStore = creds
	fitStore = fitness
	syncOrchestrator = orchestrator
	exportStore = exports
}

// InitializeSystemController wires the activation coordinator and the API
// key group manager.
func InitializeSystemController(c *activation.Coordinator, m *apikeys.Manager) {
	coordinator = c
	keyManager = m
}

// InitializeDashboardController wires the dashboard aggregator.
func InitializeDashboardController(a *dashboard.Aggregator) {
	dashboardAggregator = a
}

func currentUserID(c *fiber.Ctx) uint {
	return usercontext.GetUserID(c)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
