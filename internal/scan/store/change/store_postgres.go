package change

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
)

// PostgresStore persists change detections in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed change detection store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, detection models.ChangeDetection) error {
	fieldChanges, err := json.Marshal(detection.FieldChanges)
	if err != nil {
		return fmt.Errorf("encode field changes: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO change_detections
			(id, instrument_id, name, number, category, change_type, field_changes, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(detection.ID), detection.InstrumentID, detection.Name, detection.Number,
		detection.Category, string(detection.Type), fieldChanges, detection.DetectedAt,
	); err != nil {
		return fmt.Errorf("insert change detection: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRecent(ctx context.Context, days int) ([]models.ChangeDetection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instrument_id, name, number, category, change_type, field_changes, detected_at
		FROM change_detections
		WHERE detected_at > now() - make_interval(days => $1)
		ORDER BY detected_at DESC`,
		days,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent change detections: %w", err)
	}
	defer rows.Close()

	var out []models.ChangeDetection
	for rows.Next() {
		var detection models.ChangeDetection
		var id uuid.UUID
		var changeType string
		var fieldChanges []byte
		if err := rows.Scan(
			&id, &detection.InstrumentID, &detection.Name, &detection.Number,
			&detection.Category, &changeType, &fieldChanges, &detection.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan change detection row: %w", err)
		}
		detection.ID = domain.DetectionID(id)
		detection.Type = models.ChangeType(changeType)
		if len(fieldChanges) > 0 {
			if err := json.Unmarshal(fieldChanges, &detection.FieldChanges); err != nil {
				return nil, fmt.Errorf("decode field changes: %w", err)
			}
		}
		out = append(out, detection)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change detection rows: %w", err)
	}
	return out, nil
}
