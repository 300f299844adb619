package apikeys

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FlorianWeber/FitFox/internal/pkg/env"
)

type fakeChecker struct {
	// failKeys makes Check fail for specific keys, so fallback paths can be
	// exercised key by key.
	failKeys map[string]bool
	quota    map[string]any
	calls    []string
}

func (f *fakeChecker) Check(ctx context.Context, capability, key string) (map[string]any, error) {
	f.calls = append(f.calls, capability+"/"+key)
	if f.failKeys[key] {
		return nil, errors.New("quota exhausted")
	}
	if f.quota != nil {
		return f.quota, nil
	}
	return map[string]any{"remaining": 1000}, nil
}

func twoGroups() []Group {
	return []Group{
		{Name: "primary", Key: "key-a", Services: []string{"vision", "gemini"}, Priority: 1},
		{Name: "backup", Key: "key-b", Services: []string{"vision"}, Priority: 2},
	}
}

func TestGetAPIKeyPicksLowestPriority(t *testing.T) {
	m := NewManager(twoGroups(), &fakeChecker{})

	assert.Equal(t, "key-a", m.GetAPIKeyForService("vision"))
	// Cached: repeated lookups stay on the same group
	assert.Equal(t, "key-a", m.GetAPIKeyForService("vision"))

	a, ok := m.Assignment("vision")
	assert.True(t, ok)
	assert.Equal(t, "primary", a.GroupName)
	assert.Equal(t, StatusPending, a.Status)
}

func TestGetAPIKeyUnsupportedCapability(t *testing.T) {
	m := NewManager(twoGroups(), &fakeChecker{})

	assert.Empty(t, m.GetAPIKeyForService("translate"))
	_, ok := m.Assignment("translate")
	assert.False(t, ok)
}

func TestGetAPIKeySkipsEmptyKeys(t *testing.T) {
	groups := []Group{
		{Name: "primary", Key: "", Services: []string{"vision"}, Priority: 1},
		{Name: "backup", Key: "key-b", Services: []string{"vision"}, Priority: 2},
	}
	m := NewManager(groups, &fakeChecker{})

	assert.Equal(t, "key-b", m.GetAPIKeyForService("vision"))
}

func TestFallbackWalksPriorityChainOnce(t *testing.T) {
	m := NewManager(twoGroups(), &fakeChecker{})

	assert.Equal(t, "key-a", m.GetAPIKeyForService("vision"))
	assert.Equal(t, "key-b", m.FallbackToNextAPIKeyGroup("vision"))
	// Nothing beyond priority 2 supports vision
	assert.Empty(t, m.FallbackToNextAPIKeyGroup("vision"))
}

func TestFallbackNeverRevisitsEqualPriority(t *testing.T) {
	groups := []Group{
		{Name: "primary", Key: "key-a", Services: []string{"gemini"}, Priority: 1},
		{Name: "twin", Key: "key-t", Services: []string{"gemini"}, Priority: 1},
	}
	m := NewManager(groups, &fakeChecker{})

	assert.Equal(t, "key-a", m.GetAPIKeyForService("gemini"))
	assert.Empty(t, m.FallbackToNextAPIKeyGroup("gemini"), "equal priority is not strictly greater")
}

func TestFallbackWithoutAssignment(t *testing.T) {
	m := NewManager(twoGroups(), &fakeChecker{})
	assert.Empty(t, m.FallbackToNextAPIKeyGroup("vision"))
}

func TestInitializeServiceVerifiesKey(t *testing.T) {
	checker := &fakeChecker{quota: map[string]any{"remaining": 42}}
	m := NewManager(twoGroups(), checker)

	a := m.InitializeService(context.Background(), "gemini")

	assert.Equal(t, StatusActive, a.Status)
	assert.Equal(t, "primary", a.GroupName)
	assert.Equal(t, map[string]any{"remaining": 42}, a.Quota)
	assert.Equal(t, []string{"gemini/key-a"}, checker.calls)
}

func TestInitializeServiceWithoutKeySkipsVerification(t *testing.T) {
	checker := &fakeChecker{}
	m := NewManager(twoGroups(), checker)

	a := m.InitializeService(context.Background(), "translate")

	assert.Equal(t, StatusFailed, a.Status)
	assert.NotEmpty(t, a.Error)
	assert.Empty(t, checker.calls, "missing key must not reach the checker")
}

func TestInitializeAllServicesFallsBackExactlyOnce(t *testing.T) {
	checker := &fakeChecker{failKeys: map[string]bool{"key-a": true}}
	m := NewManager(twoGroups(), checker)

	report := m.InitializeAllServices(context.Background(), []string{"vision"})

	assert.True(t, report.Success)
	assert.Len(t, report.Assignments, 1)
	assert.Equal(t, StatusActive, report.Assignments[0].Status)
	assert.Equal(t, "backup", report.Assignments[0].GroupName)
	assert.Equal(t, []string{"vision/key-a", "vision/key-b"}, checker.calls)
}

func TestInitializeAllServicesANDSemantics(t *testing.T) {
	// gemini only has the primary group; failing key-a exhausts its chain
	checker := &fakeChecker{failKeys: map[string]bool{"key-a": true}}
	m := NewManager(twoGroups(), checker)

	report := m.InitializeAllServices(context.Background(), []string{"vision", "gemini"})

	assert.False(t, report.Success, "one failed capability forces overall failure")
	assert.Len(t, report.Assignments, 2)

	byCapability := map[string]Assignment{}
	for _, a := range report.Assignments {
		byCapability[a.Capability] = a
	}
	assert.Equal(t, StatusActive, byCapability["vision"].Status)
	assert.Equal(t, StatusFailed, byCapability["gemini"].Status)
}

func TestForceServiceGroup(t *testing.T) {
	m := NewManager(twoGroups(), &fakeChecker{})

	assert.True(t, m.ForceServiceGroup("gemini", "backup"))
	assert.Equal(t, "key-b", m.GetAPIKeyForService("gemini"))

	assert.False(t, m.ForceServiceGroup("gemini", "missing"))
	assert.False(t, m.ForceServiceGroup("gemini", ""))
}

func TestLoadGroupsFromEnv(t *testing.T) {
	prev := env.Env
	env.Env = map[string]string{
		"API_KEY_GROUP_NAMES":            "primary, backup",
		"API_KEY_GROUP_PRIMARY_KEY":      "key-a",
		"API_KEY_GROUP_PRIMARY_SERVICES": "vision,gemini",
		"API_KEY_GROUP_PRIMARY_PRIORITY": "1",
		"API_KEY_GROUP_BACKUP_KEY":       "key-b",
		"API_KEY_GROUP_BACKUP_SERVICES":  "vision",
	}
	t.Cleanup(func() { env.Env = prev })

	groups := LoadGroupsFromEnv()

	assert.Len(t, groups, 2)
	assert.Equal(t, "primary", groups[0].Name)
	assert.Equal(t, []string{"vision", "gemini"}, groups[0].Services)
	assert.Equal(t, 1, groups[0].Priority)
	assert.Equal(t, "backup", groups[1].Name)
	assert.Equal(t, 2, groups[1].Priority, "missing priority defaults to list position")
}
