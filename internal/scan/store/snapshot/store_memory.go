// Package snapshot persists immutable snapshot records and tracks which one
// is latest per instrument.
package snapshot

import (
	"context"
	"sync"

	"lexwatch/internal/scan/models"
	"lexwatch/pkg/platform/sentinel"
)

// registryKey indexes the whole-registry snapshot; per-instrument snapshots
// are keyed by their instrument identifier.
const registryKey = ""

// InMemoryStore keeps snapshots in process memory. History is retained; the
// latest index is maintained on save.
type InMemoryStore struct {
	mu      sync.RWMutex
	history []models.Snapshot
	latest  map[string]models.Snapshot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{latest: make(map[string]models.Snapshot)}
}

// Save appends the snapshot and supersedes the previous latest for its scope.
func (s *InMemoryStore) Save(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, snap)
	s.latest[snap.InstrumentID] = snap
	return nil
}

// GetLatest returns the latest snapshot for an instrument, or the latest
// whole-registry snapshot when instrumentID is empty.
func (s *InMemoryStore) GetLatest(_ context.Context, instrumentID string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.latest[instrumentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &snap, nil
}

// GetAllLatest returns the latest per-instrument snapshots, excluding the
// whole-registry snapshot.
func (s *InMemoryStore) GetAllLatest(_ context.Context) ([]models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Snapshot, 0, len(s.latest))
	for instrumentID, snap := range s.latest {
		if instrumentID == registryKey {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}
