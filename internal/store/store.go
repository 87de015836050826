// Package store keeps the in-memory status of the last synchronization
// cycle per tenant and marketplace, served by the ops HTTP API.
package store

import (
	"sync"
	"time"
)

// CycleResult is the recorded outcome of one tenant/marketplace cycle.
type CycleResult struct {
	UserID      string    `json:"user_id"`
	Marketplace string    `json:"marketplace"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	RowsTotal   int       `json:"rows_total"`
	RowsChanged int       `json:"rows_changed"`
	PushOK      bool      `json:"push_ok"`
	Merged      bool      `json:"merged"`
	Error       string    `json:"error,omitempty"`
}

type cycleKey struct {
	userID      string
	marketplace string
}

// Store is a concurrency-safe registry of last cycle results.
type Store struct {
	mu sync.RWMutex
	m  map[cycleKey]CycleResult
}

// New returns an empty registry.
func New() *Store {
	return &Store{m: make(map[cycleKey]CycleResult)}
}

// Record stores the latest result for the tenant/marketplace pair,
// replacing any previous one.
func (s *Store) Record(r CycleResult) {
	if r.UserID == "" || r.Marketplace == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[cycleKey{userID: r.UserID, marketplace: r.Marketplace}] = r
}

// Get returns the last result for the tenant/marketplace pair.
func (s *Store) Get(userID, marketplace string) (CycleResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[cycleKey{userID: userID, marketplace: marketplace}]
	return r, ok
}

// ForUser returns every recorded result for one tenant.
func (s *Store) ForUser(userID string) []CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CycleResult
	for k, r := range s.m {
		if k.userID == userID {
			out = append(out, r)
		}
	}
	return out
}

// All returns every recorded result.
func (s *Store) All() []CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CycleResult, 0, len(s.m))
	for _, r := range s.m {
		out = append(out, r)
	}
	return out
}
