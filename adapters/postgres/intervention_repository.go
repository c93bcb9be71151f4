package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/ports"
)

// InterventionRepositoryImpl implements InterventionRepository for
// PostgreSQL. Rows accumulate; nothing is ever deleted.
type InterventionRepositoryImpl struct {
	db *sqlx.DB
}

// NewInterventionRepository creates a new PostgreSQL intervention repository.
func NewInterventionRepository(db *sqlx.DB) ports.InterventionRepository {
	return &InterventionRepositoryImpl{db: db}
}

// SaveIntervention appends a new intervention.
func (r *InterventionRepositoryImpl) SaveIntervention(ctx context.Context, iv intervention.Intervention) (core.InterventionID, error) {
	if err := iv.Validate(); err != nil {
		return "", err
	}
	if iv.ID.IsEmpty() {
		iv.ID = core.InterventionID(core.NewID())
	}
	dataJSON, _ := json.Marshal(iv.SupportingData)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interventions (
			id, user_id, intervention_type, urgency, title, message,
			supporting_data, created_at, evidence_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, iv.ID.String(), string(iv.UserID), string(iv.Type), string(iv.Urgency),
		iv.Title, iv.Message, dataJSON, iv.CreatedAt.Time(), iv.EvidenceAt.Time())
	if err != nil {
		return "", err
	}
	return iv.ID, nil
}

// HasRecentUnacknowledged backs the deduplication window.
func (r *InterventionRepositoryImpl) HasRecentUnacknowledged(ctx context.Context, userID core.UserID, typ intervention.Type, title string, createdAfter time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM interventions
			WHERE user_id = $1 AND intervention_type = $2 AND title = $3
			  AND created_at > $4 AND acknowledged_at IS NULL
		)
	`, string(userID), string(typ), title, createdAfter).Scan(&exists)
	return exists, err
}

// ListRecent returns a user's most recent interventions, newest first.
func (r *InterventionRepositoryImpl) ListRecent(ctx context.Context, userID core.UserID, limit int) ([]intervention.Intervention, error) {
	query := `
		SELECT id, user_id, intervention_type, urgency, title, message,
			   supporting_data, created_at, evidence_at,
			   delivered_at, acknowledged_at, user_rating, was_helpful
		FROM interventions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{string(userID)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []intervention.Intervention
	for rows.Next() {
		var iv intervention.Intervention
		var dataJSON []byte
		var createdAt, evidenceAt time.Time
		var deliveredAt, acknowledgedAt sql.NullTime
		var rating sql.NullInt64
		var helpful sql.NullBool

		err := rows.Scan(&iv.ID, &iv.UserID, &iv.Type, &iv.Urgency, &iv.Title, &iv.Message,
			&dataJSON, &createdAt, &evidenceAt,
			&deliveredAt, &acknowledgedAt, &rating, &helpful)
		if err != nil {
			return nil, err
		}
		if len(dataJSON) > 0 {
			json.Unmarshal(dataJSON, &iv.SupportingData)
		}
		iv.CreatedAt = core.NewTimestamp(createdAt)
		iv.EvidenceAt = core.NewTimestamp(evidenceAt)
		if deliveredAt.Valid {
			ts := core.NewTimestamp(deliveredAt.Time)
			iv.DeliveredAt = &ts
		}
		if acknowledgedAt.Valid {
			ts := core.NewTimestamp(acknowledgedAt.Time)
			iv.AcknowledgedAt = &ts
		}
		if rating.Valid {
			n := int(rating.Int64)
			iv.UserRating = &n
		}
		if helpful.Valid {
			b := helpful.Bool
			iv.WasHelpful = &b
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// MarkDelivered stamps delivered_at.
func (r *InterventionRepositoryImpl) MarkDelivered(ctx context.Context, id core.InterventionID, at time.Time) error {
	return r.touch(ctx, id, "delivered_at", at)
}

// Acknowledge stamps acknowledged_at, ending the deduplication hold.
func (r *InterventionRepositoryImpl) Acknowledge(ctx context.Context, id core.InterventionID, at time.Time) error {
	return r.touch(ctx, id, "acknowledged_at", at)
}

func (r *InterventionRepositoryImpl) touch(ctx context.Context, id core.InterventionID, column string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE interventions SET "+column+" = $1 WHERE id = $2",
		at, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrInterventionNotFound
	}
	return nil
}

// Rate records user feedback. Rating must be 1..5.
func (r *InterventionRepositoryImpl) Rate(ctx context.Context, id core.InterventionID, rating int, wasHelpful bool) error {
	if rating < 1 || rating > 5 {
		return core.ErrInvalidRating
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE interventions SET user_rating = $1, was_helpful = $2 WHERE id = $3
	`, rating, wasHelpful, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrInterventionNotFound
	}
	return nil
}
