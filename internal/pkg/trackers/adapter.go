package trackers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/exportstore"
)

// ServiceID identifies one external fitness-tracking provider. The set is
// closed; dispatch goes through the Registry so unknown identifiers are a
// handled error, not a silent skip.
type ServiceID string

const (
	ServiceGoogleFit   ServiceID = "google-fit"
	ServiceAppleHealth ServiceID = "apple-health"
	ServiceFitbit      ServiceID = "fitbit"
	ServiceStrava      ServiceID = "strava"
)

// AllServiceIDs lists every supported service in stable order.
func AllServiceIDs() []ServiceID {
	return []ServiceID{ServiceGoogleFit, ServiceAppleHealth, ServiceFitbit, ServiceStrava}
}

// Fitness data types
const (
	DataTypeSteps         = "steps"
	DataTypeCalories      = "calories"
	DataTypeDistance      = "distance"
	DataTypeHeartRate     = "heartRate"
	DataTypeSleep         = "sleep"
	DataTypeWorkout       = "workout"
	DataTypeActivities    = "activities"
	DataTypeFloors        = "floors"
	DataTypeActiveMinutes = "activeMinutes"
)

// ErrUnknownService is returned by the registry for identifiers outside the
// closed service set.
var ErrUnknownService = fmt.Errorf("unknown fitness service")

// Adapter is the uniform capability interface every fitness service
// implements: auth URL generation, token exchange, data fetch, disconnect.
type Adapter interface {
	// ServiceID returns the adapter's service identifier.
	ServiceID() ServiceID

	// DisplayName returns a human-readable service name.
	DisplayName() string

	// IsConfigured reports whether the environment supplies the adapter's
	// required credentials. Apple Health is never OAuth-configured; it is
	// considered configured when the export store is available.
	IsConfigured() bool

	// MissingSecrets returns the names of required but absent secrets.
	MissingSecrets() []string

	// DefaultDataTypes lists the data types synced when a caller requests
	// none explicitly.
	DefaultDataTypes() []string

	// AuthURL builds the provider authorization URL for a user. The state
	// parameter encodes the user ID for callback correlation. Returns an
	// error when the adapter is not configured.
	AuthURL(userID uint) (string, error)

	// HandleCallback exchanges an authorization code for a token and stores
	// it. Returns false on any exchange failure so callers can redirect to
	// an error page instead of failing the request.
	HandleCallback(ctx context.Context, userID uint, code string) bool

	// FetchData retrieves provider-native data for one data type and time
	// range. It fails with an error when the adapter is unconfigured, no
	// token exists, or the upstream fetch fails.
	FetchData(ctx context.Context, userID uint, dataType string, start, end time.Time) (any, error)

	// Disconnect revokes the provider token best effort and always deletes
	// the locally stored token. Upstream revocation failures are logged,
	// never surfaced.
	Disconnect(ctx context.Context, userID uint) bool
}

// Registry maps service identifiers to adapter instances. Created once at
// bootstrap and passed to handlers; there is no ambient global.
type Registry struct {
	adapters map[ServiceID]Adapter
}

// NewRegistry wires all four adapters. The export client may be nil when the
// Apple Health export store is disabled.
func NewRegistry(creds *credstore.Store, exports *exportstore.Client) *Registry {
	r := &Registry{adapters: make(map[ServiceID]Adapter)}
	r.register(NewGoogleFitAdapter(creds))
	r.register(NewAppleHealthAdapter(creds, exports))
	r.register(NewFitbitAdapter(creds))
	r.register(NewStravaAdapter(creds))
	return r
}

func (r *Registry) register(a Adapter) {
	r.adapters[a.ServiceID()] = a
}

// Get resolves a service identifier to its adapter.
func (r *Registry) Get(serviceID string) (Adapter, error) {
	if a, ok := r.adapters[ServiceID(serviceID)]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
}

// All returns every registered adapter in stable service-ID order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceID() < out[j].ServiceID() })
	return out
}
