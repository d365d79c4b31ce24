package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexwatch/internal/notify/models"
	"lexwatch/pkg/domain"
	"lexwatch/pkg/platform/sentinel"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, n models.Notification) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications
			(id, config_id, user_id, scan_id, kind, summary, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(n.ID), uuid.UUID(n.ConfigID), uuid.UUID(n.UserID), uuid.UUID(n.ScanID),
		string(n.Type), n.Summary, n.Read, n.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByUser(ctx context.Context, userID domain.UserID) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config_id, user_id, scan_id, kind, summary, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var id, configID, ownerID, scanID uuid.UUID
		var kind string
		if err := rows.Scan(&id, &configID, &ownerID, &scanID, &kind, &n.Summary, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		n.ID = domain.NotificationID(id)
		n.ConfigID = domain.ConfigID(configID)
		n.UserID = domain.UserID(ownerID)
		n.ScanID = domain.ScanID(scanID)
		n.Type = models.Type(kind)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return out, nil
}

// MarkRead flips the read flag for an unread notification. The WHERE clause
// guards the exactly-once transition; a zero-row update is disambiguated by
// re-reading the row.
func (s *PostgresStore) MarkRead(ctx context.Context, id domain.NotificationID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND NOT read`,
		uuid.UUID(id),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var read bool
	err = s.db.QueryRowContext(ctx, `SELECT read FROM notifications WHERE id = $1`, uuid.UUID(id)).Scan(&read)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return sentinel.ErrNotFound
	case err != nil:
		return fmt.Errorf("check notification state: %w", err)
	case read:
		return sentinel.ErrInvalidState
	default:
		return sentinel.ErrNotFound
	}
}
