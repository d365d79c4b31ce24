// Package change persists individual change detections for the recent-changes
// and statistics read paths.
package change

import (
	"context"
	"sync"
	"time"

	"lexwatch/internal/scan/models"
)

// InMemoryStore keeps change detections in process memory.
type InMemoryStore struct {
	mu         sync.RWMutex
	detections []models.ChangeDetection
	clock      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{clock: time.Now}
}

// WithClock overrides the clock used by GetRecent cutoffs, for tests.
func (s *InMemoryStore) WithClock(clock func() time.Time) *InMemoryStore {
	s.clock = clock
	return s
}

func (s *InMemoryStore) Save(_ context.Context, detection models.ChangeDetection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detections = append(s.detections, detection)
	return nil
}

// GetRecent returns detections observed within the past N days, newest first.
func (s *InMemoryStore) GetRecent(_ context.Context, days int) ([]models.ChangeDetection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.clock().AddDate(0, 0, -days)
	var out []models.ChangeDetection
	for _, detection := range s.detections {
		if detection.DetectedAt.After(cutoff) {
			out = append(out, detection)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
