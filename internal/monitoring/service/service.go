// Package service owns user-facing monitoring configuration management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lexwatch/internal/monitoring/models"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
	"lexwatch/pkg/platform/sentinel"
	pkgstrings "lexwatch/pkg/platform/strings"
)

// Store is the persistence contract for monitoring configurations.
type Store interface {
	Save(ctx context.Context, cfg models.Configuration) error
	GetActive(ctx context.Context) ([]models.Configuration, error)
	GetByUser(ctx context.Context, userID domain.UserID) ([]models.Configuration, error)
	Update(ctx context.Context, cfg models.Configuration) error
}

// Service validates and persists monitoring configurations on behalf of their
// owning user.
type Service struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("configuration store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create registers a new configuration for the given user. The ID, owner,
// active flag and creation time are assigned here; caller-supplied values for
// them are ignored.
func (s *Service) Create(ctx context.Context, userID domain.UserID, cfg models.Configuration) (*models.Configuration, error) {
	cfg.ID = domain.NewConfigID()
	cfg.UserID = userID
	cfg.Categories = pkgstrings.DedupeAndTrimLower(cfg.Categories)
	cfg.Active = true
	cfg.LastCheckAt = nil
	cfg.CreatedAt = s.clock()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, cfg); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStore, "save monitoring configuration", err)
	}

	s.logger.InfoContext(ctx, "monitoring configuration created",
		"config_id", cfg.ID.String(),
		"user_id", userID.String(),
	)
	return &cfg, nil
}

// ListByUser returns all configurations owned by the user.
func (s *Service) ListByUser(ctx context.Context, userID domain.UserID) ([]models.Configuration, error) {
	configs, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStore, "load monitoring configurations", err)
	}
	return configs, nil
}

// Update replaces an existing configuration. Ownership is enforced: a user
// cannot update another user's configuration, and the mismatch is reported as
// a not-found rather than leaking the configuration's existence.
func (s *Service) Update(ctx context.Context, userID domain.UserID, cfg models.Configuration) (*models.Configuration, error) {
	existing, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStore, "load monitoring configurations", err)
	}
	var current *models.Configuration
	for i := range existing {
		if existing[i].ID == cfg.ID {
			current = &existing[i]
			break
		}
	}
	if current == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "monitoring configuration %s not found", cfg.ID.String())
	}

	cfg.UserID = userID
	cfg.Categories = pkgstrings.DedupeAndTrimLower(cfg.Categories)
	cfg.LastCheckAt = current.LastCheckAt
	cfg.CreatedAt = current.CreatedAt
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, cfg); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "monitoring configuration %s not found", cfg.ID.String())
		}
		return nil, dErrors.Wrap(dErrors.CodeStore, "update monitoring configuration", err)
	}
	return &cfg, nil
}
