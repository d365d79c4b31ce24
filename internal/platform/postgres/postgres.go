// Package postgres opens the shared database handle and applies the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	id              UUID PRIMARY KEY,
	instrument_id   TEXT NOT NULL DEFAULT '',
	fingerprint     TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL DEFAULT '',
	number          TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT '',
	promulgated_at  TEXT NOT NULL DEFAULT '',
	last_revised_at TEXT NOT NULL DEFAULT '',
	total_count     INTEGER NOT NULL DEFAULT 0,
	checksum        TEXT NOT NULL DEFAULT '',
	categories      JSONB NOT NULL DEFAULT '[]',
	last_updated    TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
	created_at      TIMESTAMPTZ NOT NULL,
	latest          BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_snapshots_instrument_latest
	ON snapshots (instrument_id) WHERE latest;

CREATE TABLE IF NOT EXISTS change_detections (
	id            UUID PRIMARY KEY,
	instrument_id TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	number        TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	change_type   TEXT NOT NULL,
	field_changes JSONB NOT NULL DEFAULT '[]',
	detected_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_change_detections_detected_at
	ON change_detections (detected_at);

CREATE TABLE IF NOT EXISTS scan_results (
	id            UUID PRIMARY KEY,
	scan_type     TEXT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ NOT NULL,
	total_scanned INTEGER NOT NULL,
	new_entries      JSONB NOT NULL DEFAULT '[]',
	revised_entries  JSONB NOT NULL DEFAULT '[]',
	abolished_entries JSONB NOT NULL DEFAULT '[]',
	metadata_entries JSONB NOT NULL DEFAULT '[]',
	requested_categories JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS monitoring_configs (
	id             UUID PRIMARY KEY,
	user_id        UUID NOT NULL,
	change_types   JSONB NOT NULL DEFAULT '[]',
	categories     JSONB NOT NULL DEFAULT '[]',
	min_new        INTEGER NOT NULL DEFAULT 1,
	min_modified   INTEGER NOT NULL DEFAULT 1,
	min_removed    INTEGER NOT NULL DEFAULT 1,
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	last_check_at  TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_monitoring_configs_user ON monitoring_configs (user_id);
CREATE INDEX IF NOT EXISTS idx_monitoring_configs_active ON monitoring_configs (active) WHERE active;

CREATE TABLE IF NOT EXISTS notifications (
	id         UUID PRIMARY KEY,
	config_id  UUID NOT NULL,
	user_id    UUID NOT NULL,
	scan_id    UUID NOT NULL,
	kind       TEXT NOT NULL,
	summary    TEXT NOT NULL,
	read       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id);
`

// Open connects, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
