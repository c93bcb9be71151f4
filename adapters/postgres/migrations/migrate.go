// Package migrations manages the pipeline's PostgreSQL schema. Migrations
// are versioned inline statements applied in order and recorded in
// schema_migrations, so repeated startups are no-ops.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrator handles database schema migrations.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new migrator.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

type migration struct {
	version string
	sql     string
}

var all = []migration{
	{
		version: "001_events",
		sql: `
			CREATE TABLE IF NOT EXISTS events (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				category TEXT NOT NULL CHECK (category IN ('physical', 'mental', 'spiritual')),
				event_type TEXT NOT NULL,
				feeling TEXT,
				payload JSONB,
				occurred_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_events_user_occurred
				ON events (user_id, occurred_at);`,
	},
	{
		version: "002_patterns",
		sql: `
			CREATE TABLE IF NOT EXISTS patterns (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				pattern_type TEXT NOT NULL,
				description TEXT NOT NULL,
				confidence DOUBLE PRECISION NOT NULL,
				sample_size INTEGER NOT NULL,
				evidence JSONB,
				first_detected_at TIMESTAMPTZ NOT NULL,
				last_seen_at TIMESTAMPTZ NOT NULL,
				frequency INTEGER NOT NULL DEFAULT 1,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				UNIQUE (user_id, pattern_type, description)
			);
			CREATE INDEX IF NOT EXISTS idx_patterns_user_active
				ON patterns (user_id) WHERE is_active;`,
	},
	{
		version: "003_interventions",
		sql: `
			CREATE TABLE IF NOT EXISTS interventions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				intervention_type TEXT NOT NULL,
				urgency TEXT NOT NULL,
				title TEXT NOT NULL,
				message TEXT NOT NULL,
				supporting_data JSONB,
				created_at TIMESTAMPTZ NOT NULL,
				evidence_at TIMESTAMPTZ NOT NULL,
				delivered_at TIMESTAMPTZ,
				acknowledged_at TIMESTAMPTZ,
				user_rating INTEGER CHECK (user_rating BETWEEN 1 AND 5),
				was_helpful BOOLEAN
			);
			CREATE INDEX IF NOT EXISTS idx_interventions_dedup
				ON interventions (user_id, intervention_type, title, created_at)
				WHERE acknowledged_at IS NULL;`,
	},
	{
		version: "004_workflow_runs",
		sql: `
			CREATE TABLE IF NOT EXISTS workflow_runs (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				run_type TEXT NOT NULL,
				status TEXT NOT NULL,
				patterns_detected INTEGER NOT NULL DEFAULT 0,
				forecast_generated BOOLEAN NOT NULL DEFAULT FALSE,
				interventions_triggered INTEGER NOT NULL DEFAULT 0,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				errors TEXT[],
				created_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_workflow_runs_user
				ON workflow_runs (user_id, created_at DESC);`,
	},
}

// Up applies all pending migrations in order.
func (m *Migrator) Up(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, mig := range all {
		if applied[mig.version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", mig.version, err)
		}
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, mig.version); err != nil {
		return err
	}
	return tx.Commit()
}
