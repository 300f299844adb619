package apikeys

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/internal/pkg/env"
)

// Assignment statuses reported by initialization and verification.
const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Group is a named credential bundle with the capabilities it can authorize.
// Lower priority numbers are preferred.
type Group struct {
	Name     string   `json:"name"`
	Key      string   `json:"-"`
	Services []string `json:"services"`
	Priority int      `json:"priority"`
}

func (g Group) supports(capability string) bool {
	for _, s := range g.Services {
		if s == capability {
			return true
		}
	}
	return false
}

// Assignment binds a capability to a group, with the observed status of the
// last verification attempt.
type Assignment struct {
	Capability string         `json:"capability"`
	GroupName  string         `json:"group_name"`
	Key        string         `json:"-"`
	Status     string         `json:"status"`
	Quota      map[string]any `json:"quota,omitempty"`
	Error      string         `json:"error,omitempty"`
	AssignedAt time.Time      `json:"assigned_at"`
}

// InitReport aggregates initializeAllServices outcomes. Success is true only
// when every capability ended up active: a single failed assignment is a hard
// outage, unlike partial sync results.
type InitReport struct {
	Success     bool         `json:"success"`
	Assignments []Assignment `json:"assignments"`
}

// Manager assigns capabilities to key groups by ascending priority.
// Assignments are computed lazily and cached for the process lifetime, until
// a fallback or override replaces them. One instance is created at bootstrap
// and shared by all requests.
type Manager struct {
	mu          sync.Mutex
	groups      []Group
	assignments map[string]*Assignment
	checker     QuotaChecker
}

// NewManager creates a manager over the given groups. Groups are kept sorted
// ascending by priority so assignment picks are deterministic.
func NewManager(groups []Group, checker QuotaChecker) *Manager {
	sorted := make([]Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	return &Manager{
		groups:      sorted,
		assignments: make(map[string]*Assignment),
		checker:     checker,
	}
}

// LoadGroupsFromEnv reads key groups from the environment:
//
//	API_KEY_GROUP_NAMES=primary,backup
//	API_KEY_GROUP_PRIMARY_KEY=...
//	API_KEY_GROUP_PRIMARY_SERVICES=vision,gemini
//	API_KEY_GROUP_PRIMARY_PRIORITY=1
//
// Groups without a name are skipped; a missing priority defaults to its
// position in the name list.
func LoadGroupsFromEnv() []Group {
	names := strings.Split(env.GetEnv("API_KEY_GROUP_NAMES", ""), ",")
	groups := make([]Group, 0, len(names))

	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		prefix := "API_KEY_GROUP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))

		priority := i + 1
		if raw := env.GetEnv(prefix+"_PRIORITY", ""); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				priority = parsed
			}
		}

		var services []string
		for _, s := range strings.Split(env.GetEnv(prefix+"_SERVICES", ""), ",") {
			if s = strings.TrimSpace(s); s != "" {
				services = append(services, s)
			}
		}

		groups = append(groups, Group{
			Name:     name,
			Key:      env.GetEnv(prefix+"_KEY", ""),
			Services: services,
			Priority: priority,
		})
	}

	return groups
}

// GetAPIKeyForService returns the key for the capability's current
// assignment, computing and caching one on first use. Returns "" when no
// configured group supports the capability with a non-empty key.
func (m *Manager) GetAPIKeyForService(capability string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.assignments[capability]; ok {
		return a.Key
	}

	group := m.pickGroup(capability, 0)
	if group == nil {
		return ""
	}

	m.assignments[capability] = &Assignment{
		Capability: capability,
		GroupName:  group.Name,
		Key:        group.Key,
		Status:     StatusPending,
		AssignedAt: time.Now(),
	}
	log.Infof("[ApiKeys] assigned capability %s to group %s (priority %d)", capability, group.Name, group.Priority)
	return group.Key
}

// FallbackToNextAPIKeyGroup degrades the capability to the next eligible
// group with a strictly greater priority number. Already-tried groups are
// never revisited; "" means the chain is exhausted.
func (m *Manager) FallbackToNextAPIKeyGroup(capability string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.assignments[capability]
	if !ok {
		return ""
	}

	currentPriority := 0
	for _, g := range m.groups {
		if g.Name == current.GroupName {
			currentPriority = g.Priority
			break
		}
	}

	next := m.pickGroup(capability, currentPriority+1)
	if next == nil {
		log.Warnf("[ApiKeys] no fallback group left for capability %s (was %s)", capability, current.GroupName)
		return ""
	}

	m.assignments[capability] = &Assignment{
		Capability: capability,
		GroupName:  next.Name,
		Key:        next.Key,
		Status:     StatusPending,
		AssignedAt: time.Now(),
	}
	log.Infof("[ApiKeys] capability %s fell back from %s to %s", capability, current.GroupName, next.Name)
	return next.Key
}

// pickGroup returns the lowest-priority eligible group with priority >=
// minPriority, or nil. Caller holds the lock; groups are pre-sorted.
func (m *Manager) pickGroup(capability string, minPriority int) *Group {
	for i := range m.groups {
		g := &m.groups[i]
		if g.Priority >= minPriority && g.Key != "" && g.supports(capability) {
			return g
		}
	}
	return nil
}

// InitializeService resolves a key for the capability and verifies it
// against the quota checker. A missing key yields a failed assignment
// without a verification attempt.
func (m *Manager) InitializeService(ctx context.Context, capability string) Assignment {
	key := m.GetAPIKeyForService(capability)
	if key == "" {
		failed := Assignment{
			Capability: capability,
			Status:     StatusFailed,
			Error:      fmt.Sprintf("no key group supports capability %s", capability),
			AssignedAt: time.Now(),
		}
		m.record(failed)
		return failed
	}

	m.mu.Lock()
	assignment := *m.assignments[capability]
	m.mu.Unlock()

	quota, err := m.checker.Check(ctx, capability, key)
	if err != nil {
		assignment.Status = StatusFailed
		assignment.Error = err.Error()
		log.Warnf("[ApiKeys] verification failed for capability %s via group %s: %v", capability, assignment.GroupName, err)
	} else {
		assignment.Status = StatusActive
		assignment.Quota = quota
		assignment.Error = ""
	}

	m.record(assignment)
	return assignment
}

// InitializeAllServices initializes each capability, attempting exactly one
// fallback for every capability that failed verification. Overall success
// requires every capability to end active.
func (m *Manager) InitializeAllServices(ctx context.Context, capabilities []string) InitReport {
	report := InitReport{Success: true, Assignments: make([]Assignment, 0, len(capabilities))}

	for _, capability := range capabilities {
		assignment := m.InitializeService(ctx, capability)
		if assignment.Status != StatusActive {
			if m.FallbackToNextAPIKeyGroup(capability) != "" {
				assignment = m.InitializeService(ctx, capability)
			}
		}

		if assignment.Status != StatusActive {
			report.Success = false
		}
		report.Assignments = append(report.Assignments, assignment)
	}

	return report
}

// ForceServiceGroup pins the capability to a named group, bypassing priority
// ordering. Fails when the group is unknown or has no key.
func (m *Manager) ForceServiceGroup(capability, groupName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.groups {
		if g.Name != groupName {
			continue
		}
		if g.Key == "" {
			return false
		}
		m.assignments[capability] = &Assignment{
			Capability: capability,
			GroupName:  g.Name,
			Key:        g.Key,
			Status:     StatusPending,
			AssignedAt: time.Now(),
		}
		log.Infof("[ApiKeys] capability %s forced to group %s", capability, groupName)
		return true
	}
	return false
}

// Assignment returns a copy of the capability's current assignment, if any.
func (m *Manager) Assignment(capability string) (Assignment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assignments[capability]
	if !ok {
		return Assignment{}, false
	}
	return *a, true
}

func (m *Manager) record(a Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := a
	m.assignments[a.Capability] = &copied
}
