// internal/db/db.go
package db

import (
	"database/sql"

	_ "github.com/lib/pq"
)

func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	return conn, nil
}

// EnsureSchema creates the tables on first boot. Set columns (tags,
// sent_steps, include_tags, exclude_tags) are comma-delimited text; the
// repositories translate them to proper set types.
func EnsureSchema(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recipients (
			id           TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			nickname     TEXT NOT NULL DEFAULT '',
			tags         TEXT NOT NULL DEFAULT '',
			enrolled_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			sent_steps   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS drip_steps (
			id           TEXT PRIMARY KEY,
			days_after   INTEGER NOT NULL CHECK (days_after >= 0),
			message_text TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS scheduled_sends (
			id           TEXT PRIMARY KEY,
			recipient_id TEXT NOT NULL DEFAULT '',
			include_tags TEXT NOT NULL DEFAULT '',
			exclude_tags TEXT NOT NULL DEFAULT '',
			message_text TEXT NOT NULL,
			send_at      TIMESTAMPTZ NOT NULL,
			status       TEXT NOT NULL DEFAULT 'pending',
			last_error   TEXT NOT NULL DEFAULT '',
			delivered_at TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS send_history (
			id              SERIAL PRIMARY KEY,
			send_id         TEXT NOT NULL,
			recipient_count INTEGER NOT NULL,
			message_text    TEXT NOT NULL,
			delivered_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_marker (
			id                   INTEGER PRIMARY KEY CHECK (id = 1),
			last_step_check_date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recipients_enrolled_at ON recipients (enrolled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_sends_due ON scheduled_sends (status, send_at)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
