// Package scanresult persists the outcome of each scan cycle.
package scanresult

import (
	"context"
	"sync"

	"lexwatch/internal/scan/models"
	"lexwatch/pkg/platform/sentinel"
)

// InMemoryStore keeps scan results in process memory, newest last.
type InMemoryStore struct {
	mu      sync.RWMutex
	results []models.ScanResult
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, result models.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *InMemoryStore) GetLatest(_ context.Context) (*models.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.results) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := s.results[len(s.results)-1]
	return &latest, nil
}
