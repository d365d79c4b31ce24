package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"lexwatch/internal/monitoring/models"
	scanmodels "lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
	"lexwatch/pkg/platform/sentinel"
)

// PostgresStore persists monitoring configurations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed configuration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, cfg models.Configuration) error {
	changeTypes, categories, err := encodeFilters(cfg)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO monitoring_configs
			(id, user_id, change_types, categories, min_new, min_modified, min_removed, active, last_check_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(cfg.ID), uuid.UUID(cfg.UserID), changeTypes, categories,
		cfg.Threshold.MinNew, cfg.Threshold.MinModified, cfg.Threshold.MinRemoved,
		cfg.Active, cfg.LastCheckAt, cfg.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert monitoring config: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetActive(ctx context.Context) ([]models.Configuration, error) {
	return s.query(ctx, `
		SELECT id, user_id, change_types, categories, min_new, min_modified, min_removed, active, last_check_at, created_at
		FROM monitoring_configs
		WHERE active`)
}

func (s *PostgresStore) GetByUser(ctx context.Context, userID domain.UserID) ([]models.Configuration, error) {
	return s.query(ctx, `
		SELECT id, user_id, change_types, categories, min_new, min_modified, min_removed, active, last_check_at, created_at
		FROM monitoring_configs
		WHERE user_id = $1
		ORDER BY created_at`,
		uuid.UUID(userID))
}

func (s *PostgresStore) Update(ctx context.Context, cfg models.Configuration) error {
	changeTypes, categories, err := encodeFilters(cfg)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE monitoring_configs
		SET change_types = $2, categories = $3, min_new = $4, min_modified = $5,
			min_removed = $6, active = $7, last_check_at = $8
		WHERE id = $1`,
		uuid.UUID(cfg.ID), changeTypes, categories,
		cfg.Threshold.MinNew, cfg.Threshold.MinModified, cfg.Threshold.MinRemoved,
		cfg.Active, cfg.LastCheckAt,
	)
	if err != nil {
		return fmt.Errorf("update monitoring config: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update monitoring config: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]models.Configuration, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list monitoring configs: %w", err)
	}
	defer rows.Close()

	var out []models.Configuration
	for rows.Next() {
		var cfg models.Configuration
		var id, userID uuid.UUID
		var changeTypes, categories []byte
		if err := rows.Scan(
			&id, &userID, &changeTypes, &categories,
			&cfg.Threshold.MinNew, &cfg.Threshold.MinModified, &cfg.Threshold.MinRemoved,
			&cfg.Active, &cfg.LastCheckAt, &cfg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan monitoring config row: %w", err)
		}
		cfg.ID = domain.ConfigID(id)
		cfg.UserID = domain.UserID(userID)
		if err := json.Unmarshal(changeTypes, &cfg.ChangeTypes); err != nil {
			return nil, fmt.Errorf("decode watched change types: %w", err)
		}
		if err := json.Unmarshal(categories, &cfg.Categories); err != nil {
			return nil, fmt.Errorf("decode watched categories: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monitoring config rows: %w", err)
	}
	return out, nil
}

func encodeFilters(cfg models.Configuration) (changeTypes, categories []byte, err error) {
	watched := cfg.ChangeTypes
	if watched == nil {
		watched = []scanmodels.ChangeType{}
	}
	changeTypes, err = json.Marshal(watched)
	if err != nil {
		return nil, nil, fmt.Errorf("encode watched change types: %w", err)
	}
	cats := cfg.Categories
	if cats == nil {
		cats = []string{}
	}
	categories, err = json.Marshal(cats)
	if err != nil {
		return nil, nil, fmt.Errorf("encode watched categories: %w", err)
	}
	return changeTypes, categories, nil
}
