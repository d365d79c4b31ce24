// Package notification persists emitted notifications.
package notification

import (
	"context"
	"sync"

	"lexwatch/internal/notify/models"
	"lexwatch/pkg/domain"
	"lexwatch/pkg/platform/sentinel"
)

// InMemoryStore keeps notifications in process memory.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

// GetByUser returns the user's notifications, newest first.
func (s *InMemoryStore) GetByUser(_ context.Context, userID domain.UserID) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

// MarkRead flips the read flag, unread to read exactly once. Marking an
// already-read notification is an invalid-state error.
func (s *InMemoryStore) MarkRead(_ context.Context, id domain.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if s.notifications[i].Read {
			return sentinel.ErrInvalidState
		}
		s.notifications[i].Read = true
		return nil
	}
	return sentinel.ErrNotFound
}
