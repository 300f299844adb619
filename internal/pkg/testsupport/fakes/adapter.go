// Package fakes provides a scriptable trackers.Adapter and resolver for unit
// tests. It lives apart from testsupport so that packages imported by
// trackers can use testsupport without creating an import cycle.
package fakes

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/FlorianWeber/FitFox/internal/pkg/trackers"
)

// FakeAdapter is a scriptable trackers.Adapter for unit tests.
type FakeAdapter struct {
	ID          trackers.ServiceID
	Name        string
	Configured  bool
	Missing     []string
	Defaults    []string
	AuthURLBase string

	// FetchResults and FetchErrors script FetchData per data type.
	FetchResults map[string]any
	FetchErrors  map[string]error

	CallbackOK      bool
	DisconnectOK    bool
	FetchCalls      []string
	CallbackCalls   int
	DisconnectCalls int
}

func (f *FakeAdapter) ServiceID() trackers.ServiceID { return f.ID }

func (f *FakeAdapter) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return string(f.ID)
}

func (f *FakeAdapter) IsConfigured() bool { return f.Configured }

func (f *FakeAdapter) MissingSecrets() []string { return f.Missing }

func (f *FakeAdapter) DefaultDataTypes() []string { return f.Defaults }

func (f *FakeAdapter) AuthURL(userID uint) (string, error) {
	if !f.Configured {
		return "", &trackers.NotConfiguredError{Service: f.ID}
	}
	base := f.AuthURLBase
	if base == "" {
		base = "https://auth.example/" + string(f.ID)
	}
	return fmt.Sprintf("%s?state=%s", base, trackers.EncodeState(userID)), nil
}

func (f *FakeAdapter) HandleCallback(ctx context.Context, userID uint, code string) bool {
	f.CallbackCalls++
	return f.CallbackOK
}

func (f *FakeAdapter) FetchData(ctx context.Context, userID uint, dataType string, start, end time.Time) (any, error) {
	f.FetchCalls = append(f.FetchCalls, dataType)
	if err, ok := f.FetchErrors[dataType]; ok {
		return nil, err
	}
	if result, ok := f.FetchResults[dataType]; ok {
		return result, nil
	}
	return map[string]any{"dataType": dataType}, nil
}

func (f *FakeAdapter) Disconnect(ctx context.Context, userID uint) bool {
	f.DisconnectCalls++
	return f.DisconnectOK
}

// FakeResolver resolves service IDs to fake adapters.
type FakeResolver struct {
	Adapters map[string]trackers.Adapter
}

func NewFakeResolver(adapters ...trackers.Adapter) *FakeResolver {
	r := &FakeResolver{Adapters: make(map[string]trackers.Adapter)}
	for _, a := range adapters {
		r.Adapters[string(a.ServiceID())] = a
	}
	return r
}

func (r *FakeResolver) Get(serviceID string) (trackers.Adapter, error) {
	if a, ok := r.Adapters[serviceID]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s", trackers.ErrUnknownService, serviceID)
}

func (r *FakeResolver) All() []trackers.Adapter {
	out := make([]trackers.Adapter, 0, len(r.Adapters))
	for _, a := range r.Adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceID() < out[j].ServiceID() })
	return out
}
