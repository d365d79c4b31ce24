package scanresult

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

// PostgresStore persists scan results in PostgreSQL. The classified entry
// lists are stored as JSONB; they are read back whole, never queried into.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed scan result store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, result models.ScanResult) error {
	encode := func(entries []models.ChangeDetection) ([]byte, error) {
		if entries == nil {
			entries = []models.ChangeDetection{}
		}
		return json.Marshal(entries)
	}

	newEntries, err := encode(result.New)
	if err != nil {
		return fmt.Errorf("encode new entries: %w", err)
	}
	revised, err := encode(result.Revised)
	if err != nil {
		return fmt.Errorf("encode revised entries: %w", err)
	}
	abolished, err := encode(result.Abolished)
	if err != nil {
		return fmt.Errorf("encode abolished entries: %w", err)
	}
	metadata, err := encode(result.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata entries: %w", err)
	}

	requested := result.RequestedCategories
	if requested == nil {
		requested = []string{}
	}
	categories, err := json.Marshal(requested)
	if err != nil {
		return fmt.Errorf("encode requested categories: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_results
			(id, scan_type, started_at, completed_at, total_scanned,
			 new_entries, revised_entries, abolished_entries, metadata_entries,
			 requested_categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(result.ID), string(result.Type), result.StartedAt, result.CompletedAt,
		result.TotalScanned, newEntries, revised, abolished, metadata, categories,
	); err != nil {
		return fmt.Errorf("insert scan result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLatest(ctx context.Context) (*models.ScanResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, scan_type, started_at, completed_at, total_scanned,
		       new_entries, revised_entries, abolished_entries, metadata_entries,
		       requested_categories
		FROM scan_results
		ORDER BY completed_at DESC
		LIMIT 1`)

	var result models.ScanResult
	var id uuid.UUID
	var scanType string
	var newEntries, revised, abolished, metadata, categories []byte
	if err := row.Scan(
		&id, &scanType, &result.StartedAt, &result.CompletedAt, &result.TotalScanned,
		&newEntries, &revised, &abolished, &metadata, &categories,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get latest scan result: %w", err)
	}
	result.ID = domain.ScanID(id)
	result.Type = models.ScanType(scanType)

	for _, pair := range []struct {
		data []byte
		dest *[]models.ChangeDetection
	}{
		{newEntries, &result.New},
		{revised, &result.Revised},
		{abolished, &result.Abolished},
		{metadata, &result.Metadata},
	} {
		if err := json.Unmarshal(pair.data, pair.dest); err != nil {
			return nil, fmt.Errorf("decode scan result entries: %w", err)
		}
	}

	var requested []string
	if err := json.Unmarshal(categories, &requested); err != nil {
		return nil, fmt.Errorf("decode requested categories: %w", err)
	}
	if len(requested) > 0 {
		result.RequestedCategories = requested
	}
	return &result, nil
}
