package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
	"lexwatch/pkg/platform/sentinel"
)

// PostgresStore persists snapshots in PostgreSQL. A partial index on
// (instrument_id) WHERE latest keeps the latest lookups cheap.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed snapshot store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, snap models.Snapshot) error {
	categories, err := json.Marshal(snap.Categories)
	if err != nil {
		return fmt.Errorf("encode category summaries: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE snapshots SET latest = FALSE WHERE instrument_id = $1 AND latest`,
		snap.InstrumentID,
	); err != nil {
		return fmt.Errorf("supersede previous snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
			(id, instrument_id, fingerprint, name, number, category, status,
			 promulgated_at, last_revised_at, total_count, checksum, categories, last_updated, created_at, latest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE)`,
		uuid.UUID(snap.ID), snap.InstrumentID, snap.Fingerprint, snap.Name, snap.Number,
		snap.Category, snap.Status, snap.PromulgatedAt, snap.LastRevisedAt,
		snap.TotalCount, snap.Checksum, categories, snap.LastUpdated, snap.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLatest(ctx context.Context, instrumentID string) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, instrument_id, fingerprint, name, number, category, status,
		       promulgated_at, last_revised_at, total_count, checksum, categories, last_updated, created_at
		FROM snapshots
		WHERE instrument_id = $1 AND latest`,
		instrumentID,
	)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) GetAllLatest(ctx context.Context) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instrument_id, fingerprint, name, number, category, status,
		       promulgated_at, last_revised_at, total_count, checksum, categories, last_updated, created_at
		FROM snapshots
		WHERE latest AND instrument_id <> ''`)
	if err != nil {
		return nil, fmt.Errorf("list latest snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var snap models.Snapshot
	var id uuid.UUID
	var categories []byte
	if err := row.Scan(
		&id, &snap.InstrumentID, &snap.Fingerprint, &snap.Name, &snap.Number,
		&snap.Category, &snap.Status, &snap.PromulgatedAt, &snap.LastRevisedAt,
		&snap.TotalCount, &snap.Checksum, &categories, &snap.LastUpdated, &snap.CreatedAt,
	); err != nil {
		return nil, err
	}
	snap.ID = domain.SnapshotID(id)
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &snap.Categories); err != nil {
			return nil, fmt.Errorf("decode category summaries: %w", err)
		}
	}
	return &snap, nil
}
