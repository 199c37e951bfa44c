package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// schema is applied statement by statement in one transaction; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id         TEXT PRIMARY KEY,
		position   BIGSERIAL,
		document   JSONB NOT NULL,
		version    BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS courses_position_idx ON courses (position)`,
	`CREATE TABLE IF NOT EXISTS authoring_events (
		id         BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		course_id  TEXT NOT NULL DEFAULT '',
		event_type TEXT NOT NULL,
		data       JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS authoring_events_course_idx ON authoring_events (course_id, created_at)`,
}

// Migrate creates the tables the studio needs if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	return db.InTx(ctx, func(tx pgx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("applying schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
