package credstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/app/models"
	"github.com/FlorianWeber/FitFox/app/repository"
)

// TokenFields carries the credential payload obtained from a provider's
// token endpoint.
type TokenFields struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Store persists OAuth-like service tokens per (user, service) pair.
//
// The durable repository is authoritative when reachable. Every write also
// lands in an in-memory map so that a database outage degrades the store to
// memory-only operation instead of failing requests. Tokens are small and
// cheap to re-acquire, so losing the memory copy on restart is an accepted
// tradeoff. Fitness data (fitstore) deliberately has no such fallback.
type Store struct {
	tokens  repository.TokenRepository
	fitness repository.FitnessRepository

	mu       sync.RWMutex
	fallback map[string]*models.ServiceToken
}

// New creates a credential store backed by the given repositories.
// One instance is created at bootstrap and shared by all request handlers.
func New(tokens repository.TokenRepository, fitness repository.FitnessRepository) *Store {
	return &Store{
		tokens:   tokens,
		fitness:  fitness,
		fallback: make(map[string]*models.ServiceToken),
	}
}

func fallbackKey(userID uint, serviceID string) string {
	return fmt.Sprintf("%d:%s", userID, serviceID)
}

// StoreToken overwrites the token for a (user, service) pair. The durable
// write happens first; if it fails the error is logged and swallowed, since
// the in-memory copy keeps the connection usable for this process lifetime.
// The fallback map is updated on every call so it is always warm.
func (s *Store) StoreToken(userID uint, serviceID string, fields TokenFields) *models.ServiceToken {
	token := &models.ServiceToken{
		UserID:       userID,
		ServiceID:    serviceID,
		AccessToken:  fields.AccessToken,
		RefreshToken: fields.RefreshToken,
		ExpiresAt:    fields.ExpiresAt,
	}

	// Preserve the last sync date across token refreshes.
	if prev := s.GetToken(userID, serviceID); prev != nil {
		token.LastSyncDate = prev.LastSyncDate
	}

	if err := s.tokens.Upsert(token); err != nil {
		log.Warnf("[CredStore] durable token write failed for user %d service %s: %v", userID, serviceID, err)
	}

	s.mu.Lock()
	s.fallback[fallbackKey(userID, serviceID)] = token
	s.mu.Unlock()

	return token
}

// GetToken returns the token for a (user, service) pair, or nil if none
// exists. The durable store is consulted first; any read failure (outage or
// not found) falls through to the in-memory map.
func (s *Store) GetToken(userID uint, serviceID string) *models.ServiceToken {
	token, err := s.tokens.Get(userID, serviceID)
	if err == nil && token != nil {
		return token
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if cached, ok := s.fallback[fallbackKey(userID, serviceID)]; ok {
		return cached
	}
	return nil
}

// UpdateLastSyncDate stamps the token's last sync date with the current time
// and merges a sync metadata document (status active) for cheap dashboard
// reads. Returns nil if no token exists for the pair.
func (s *Store) UpdateLastSyncDate(userID uint, serviceID string) *models.ServiceToken {
	token := s.GetToken(userID, serviceID)
	if token == nil {
		return nil
	}

	now := time.Now()
	token.LastSyncDate = &now

	if err := s.tokens.Upsert(token); err != nil {
		log.Warnf("[CredStore] durable last-sync update failed for user %d service %s: %v", userID, serviceID, err)
	}

	s.mu.Lock()
	s.fallback[fallbackKey(userID, serviceID)] = token
	s.mu.Unlock()

	meta := &models.SyncMetadata{
		UserID:       userID,
		ServiceID:    serviceID,
		Status:       models.SyncStatusActive,
		LastSyncDate: &now,
	}
	if err := s.fitness.UpsertMetadata(meta); err != nil {
		log.Warnf("[CredStore] sync metadata write failed for user %d service %s: %v", userID, serviceID, err)
	}

	return token
}

// DeleteToken removes the token for a (user, service) pair and writes a
// disconnected metadata marker.
//
// The return value reflects only whether the in-memory entry existed; the
// durable delete is best effort and its outcome is logged but ignored.
func (s *Store) DeleteToken(userID uint, serviceID string) bool {
	if err := s.tokens.Delete(userID, serviceID); err != nil {
		log.Warnf("[CredStore] durable token delete failed for user %d service %s: %v", userID, serviceID, err)
	}

	key := fallbackKey(userID, serviceID)
	s.mu.Lock()
	_, existed := s.fallback[key]
	delete(s.fallback, key)
	s.mu.Unlock()

	now := time.Now()
	meta := &models.SyncMetadata{
		UserID:         userID,
		ServiceID:      serviceID,
		Status:         models.SyncStatusDisconnected,
		DisconnectedAt: &now,
	}
	if err := s.fitness.UpsertMetadata(meta); err != nil {
		log.Warnf("[CredStore] disconnect metadata write failed for user %d service %s: %v", userID, serviceID, err)
	}

	return existed
}

// HasToken reports whether a live token exists for the pair.
func (s *Store) HasToken(userID uint, serviceID string) bool {
	return s.GetToken(userID, serviceID) != nil
}

// ListServices returns the service IDs the user holds a token for, sorted
// for stable output. Durable rows and in-memory fallback entries are merged
// so an outage does not hide live connections.
func (s *Store) ListServices(userID uint) []string {
	seen := make(map[string]bool)

	tokens, err := s.tokens.ListByUser(userID)
	if err != nil {
		log.Warnf("[CredStore] durable token listing failed for user %d: %v", userID, err)
	}
	for _, token := range tokens {
		seen[token.ServiceID] = true
	}

	s.mu.RLock()
	for _, token := range s.fallback {
		if token.UserID == userID {
			seen[token.ServiceID] = true
		}
	}
	s.mu.RUnlock()

	services := make([]string, 0, len(seen))
	for serviceID := range seen {
		services = append(services, serviceID)
	}
	sort.Strings(services)
	return services
}
