package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Swapnil565/Jarvis/domain/workflow"
	"github.com/Swapnil565/Jarvis/ports"
)

// WorkflowRepositoryImpl archives workflow run telemetry in PostgreSQL.
type WorkflowRepositoryImpl struct {
	db *sqlx.DB
}

// NewWorkflowRepository creates a new PostgreSQL workflow repository.
func NewWorkflowRepository(db *sqlx.DB) ports.WorkflowRepository {
	return &WorkflowRepositoryImpl{db: db}
}

// SaveRun appends one run record.
func (r *WorkflowRepositoryImpl) SaveRun(ctx context.Context, rec workflow.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workflow_runs (
			id, user_id, run_type, status, patterns_detected,
			forecast_generated, interventions_triggered, duration_ms, errors, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID.String(), string(rec.UserID), string(rec.RunType), string(rec.Status),
		rec.Patterns, rec.Forecasted, rec.Triggered, rec.DurationMs,
		pq.Array(rec.Errors), rec.CreatedAt.Time())
	return err
}
