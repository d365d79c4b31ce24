// Package config persists user monitoring configurations.
package config

import (
	"context"
	"sync"

	"lexwatch/internal/monitoring/models"
	"lexwatch/pkg/domain"
	"lexwatch/pkg/platform/sentinel"
)

// InMemoryStore keeps monitoring configurations in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	configs map[domain.ConfigID]models.Configuration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{configs: make(map[domain.ConfigID]models.Configuration)}
}

func (s *InMemoryStore) Save(_ context.Context, cfg models.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.ID] = cfg
	return nil
}

// GetActive returns every configuration currently flagged active.
func (s *InMemoryStore) GetActive(_ context.Context) ([]models.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Configuration
	for _, cfg := range s.configs {
		if cfg.Active {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *InMemoryStore) GetByUser(_ context.Context, userID domain.UserID) ([]models.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Configuration
	for _, cfg := range s.configs {
		if cfg.UserID == userID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

// Update replaces an existing configuration. Unknown IDs are a not-found.
func (s *InMemoryStore) Update(_ context.Context, cfg models.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[cfg.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.configs[cfg.ID] = cfg
	return nil
}
