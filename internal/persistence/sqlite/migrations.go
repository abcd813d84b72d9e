package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migration is a named, versioned set of DDL statements applied in order.
type migration struct {
	version    int
	name       string
	statements []string
}

// migrations is the full schema history. Entries are append-only; applied
// versions are recorded in schema_migrations and never rerun.
var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				name          TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS contacts (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name       TEXT NOT NULL,
				phone      TEXT NOT NULL,
				relation   TEXT NOT NULL,
				notes      TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE (user_id, phone)
			)`,
			`CREATE TABLE IF NOT EXISTS events (
				id              TEXT PRIMARY KEY,
				user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				contact_id      TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
				title           TEXT NOT NULL,
				type            TEXT NOT NULL,
				original_date   TEXT NOT NULL,
				notes           TEXT NOT NULL DEFAULT '',
				recurring_month INTEGER NOT NULL CHECK (recurring_month BETWEEN 1 AND 12),
				recurring_day   INTEGER NOT NULL CHECK (recurring_day BETWEEN 1 AND 31),
				next_occurrence TEXT NOT NULL,
				created_at      TEXT NOT NULL,
				updated_at      TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_events_user_occurrence ON events (user_id, next_occurrence)`,
			`CREATE INDEX IF NOT EXISTS idx_events_contact ON events (contact_id)`,
			`CREATE TABLE IF NOT EXISTS templates (
				id         TEXT PRIMARY KEY,
				owner_id   TEXT REFERENCES users(id) ON DELETE CASCADE,
				title      TEXT NOT NULL,
				body       TEXT NOT NULL,
				category   TEXT NOT NULL,
				event_type TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_system_title ON templates (title) WHERE owner_id IS NULL`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				token      TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				revoked_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
		},
	},
}

// Migrate brings the database schema up to the latest version. It is safe to
// run on every startup.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if pool == nil {
		return fmt.Errorf("sqlite: connection pool is required")
	}

	if _, err := pool.DB().ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: failed to prepare migration table: %w", err)
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}
		m := m
		err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("sqlite: migration %d (%s) failed: %w", m.version, m.name, err)
				}
			}
			_, err := tx.Exec(
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				m.version, m.name, time.Now().UTC().Format(time.RFC3339),
			)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func appliedVersions(ctx context.Context, pool *ConnectionPool) (map[int]struct{}, error) {
	rows, err := pool.DB().QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to read migration table: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]struct{})
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}
