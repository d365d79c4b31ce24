// Package service evaluates scan diffs against monitoring configurations and
// emits notifications for the ones that qualify.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lexwatch/internal/monitoring/models"
	notifyModel "lexwatch/internal/notify/models"
	scanmodels "lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
	"lexwatch/pkg/platform/sentinel"
)

// ConfigStore is the slice of the monitoring store the evaluator needs.
type ConfigStore interface {
	GetActive(ctx context.Context) ([]models.Configuration, error)
	Update(ctx context.Context, cfg models.Configuration) error
}

// NotificationStore persists emitted notifications.
type NotificationStore interface {
	Save(ctx context.Context, n notifyModel.Notification) error
	GetByUser(ctx context.Context, userID domain.UserID) ([]notifyModel.Notification, error)
	MarkRead(ctx context.Context, id domain.NotificationID) error
}

// Dispatcher delivers one notification. Attempted once per qualifying
// configuration per scan; failures are logged, never retried.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notifyModel.Notification) error
}

// Service is the notification policy evaluator.
type Service struct {
	configs       ConfigStore
	notifications NotificationStore
	dispatcher    Dispatcher
	logger        *slog.Logger
	clock         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDispatcher sets the delivery transport. Without one, notifications are
// persisted but not delivered.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(configs ConfigStore, notifications NotificationStore, opts ...Option) (*Service, error) {
	if configs == nil {
		return nil, errors.New("configuration store is required")
	}
	if notifications == nil {
		return nil, errors.New("notification store is required")
	}
	svc := &Service{
		configs:       configs,
		notifications: notifications,
		logger:        slog.Default(),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Evaluate runs the diff through every active monitoring configuration:
// filter by category and watched change types, then apply the threshold to
// the filtered diff. Qualifying configurations get a persisted notification,
// one dispatch attempt, and an updated lastCheckAt. Only a failure to load
// the active configurations aborts the cycle; everything downstream is
// logged and skipped per configuration.
func (s *Service) Evaluate(ctx context.Context, scanID domain.ScanID, d *scanmodels.Diff) error {
	active, err := s.configs.GetActive(ctx)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeStore, "load active monitoring configurations", err)
	}

	now := s.clock()
	for _, cfg := range active {
		filtered := FilterByCategory(d, cfg.Categories)
		filtered = FilterByChangeType(filtered, cfg.ChangeTypes)
		if !ShouldNotify(filtered, cfg.Threshold) {
			continue
		}

		n := notifyModel.Notification{
			ID:        domain.NewNotificationID(),
			ConfigID:  cfg.ID,
			UserID:    cfg.UserID,
			ScanID:    scanID,
			Type:      notifyModel.TypeImmediate,
			Summary:   summarize(filtered),
			CreatedAt: now,
		}
		if err := s.notifications.Save(ctx, n); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist notification",
				"config_id", cfg.ID.String(),
				"scan_id", scanID.String(),
				"error", err,
			)
			continue
		}

		if s.dispatcher != nil {
			if err := s.dispatcher.Dispatch(ctx, n); err != nil {
				s.logger.ErrorContext(ctx, "notification dispatch failed",
					"notification_id", n.ID.String(),
					"config_id", cfg.ID.String(),
					"error", err,
				)
			}
		}

		checked := now
		cfg.LastCheckAt = &checked
		if err := s.configs.Update(ctx, cfg); err != nil {
			s.logger.ErrorContext(ctx, "failed to update configuration last check time",
				"config_id", cfg.ID.String(),
				"error", err,
			)
		}
	}
	return nil
}

// ListByUser returns the user's notifications, newest first per store order.
func (s *Service) ListByUser(ctx context.Context, userID domain.UserID) ([]notifyModel.Notification, error) {
	notifications, err := s.notifications.GetByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStore, "load notifications", err)
	}
	return notifications, nil
}

// MarkRead flips a notification from unread to read. Ownership is enforced;
// a repeat mark is rejected, the flag mutates exactly once.
func (s *Service) MarkRead(ctx context.Context, userID domain.UserID, id domain.NotificationID) error {
	owned, err := s.notifications.GetByUser(ctx, userID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeStore, "load notifications", err)
	}
	found := false
	for _, n := range owned {
		if n.ID == id {
			found = true
			break
		}
	}
	if !found {
		return dErrors.Newf(dErrors.CodeNotFound, "notification %s not found", id.String())
	}

	if err := s.notifications.MarkRead(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Newf(dErrors.CodeNotFound, "notification %s not found", id.String())
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeInvalidInput, "notification is already read")
		default:
			return dErrors.Wrap(dErrors.CodeStore, "mark notification read", err)
		}
	}
	return nil
}

// summarize renders the human-readable one-liner stored on the notification.
func summarize(d *scanmodels.Diff) string {
	parts := []string{
		fmt.Sprintf("%d new", d.Summary.TotalNew),
		fmt.Sprintf("%d modified", d.Summary.TotalModified),
		fmt.Sprintf("%d removed", d.Summary.TotalRemoved),
	}
	summary := strings.Join(parts, ", ") + " instruments"
	if len(d.Summary.Categories) > 0 {
		summary += " in " + strings.Join(d.Summary.Categories, ", ")
	}
	return summary
}
