package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/ports"
)

// PatternRepositoryImpl implements PatternRepository for PostgreSQL. The
// merge runs inside ON CONFLICT so concurrent re-detections of the same
// logical pattern cannot lose frequency increments; singleflight collapses
// same-key upserts from the same process before they reach the database.
type PatternRepositoryImpl struct {
	db       *sqlx.DB
	inFlight singleflight.Group
}

// NewPatternRepository creates a new PostgreSQL pattern repository.
func NewPatternRepository(db *sqlx.DB) ports.PatternRepository {
	return &PatternRepositoryImpl{db: db}
}

const patternColumns = `
	id, user_id, pattern_type, description, confidence, sample_size,
	evidence, first_detected_at, last_seen_at, frequency, is_active`

// UpsertPattern inserts or merges by (user_id, pattern_type, description),
// returning the stored row.
func (r *PatternRepositoryImpl) UpsertPattern(ctx context.Context, p pattern.Pattern) (pattern.Pattern, error) {
	if err := p.Validate(); err != nil {
		return pattern.Pattern{}, err
	}
	if p.ID.IsEmpty() {
		p.ID = core.PatternID(core.NewID())
	}

	v, err, _ := r.inFlight.Do(p.IdentityKey(), func() (interface{}, error) {
		return r.upsert(ctx, p)
	})
	if err != nil {
		return pattern.Pattern{}, err
	}
	return v.(pattern.Pattern), nil
}

func (r *PatternRepositoryImpl) upsert(ctx context.Context, p pattern.Pattern) (pattern.Pattern, error) {
	evidenceJSON, _ := json.Marshal(p.Evidence)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO patterns (`+patternColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, TRUE)
		ON CONFLICT (user_id, pattern_type, description) DO UPDATE SET
			confidence = LEAST(0.95, GREATEST(0.5,
				(patterns.confidence * patterns.sample_size + EXCLUDED.confidence * EXCLUDED.sample_size)
				/ NULLIF(patterns.sample_size + EXCLUDED.sample_size, 0)::float)),
			sample_size = EXCLUDED.sample_size,
			evidence = EXCLUDED.evidence,
			last_seen_at = EXCLUDED.last_seen_at,
			frequency = patterns.frequency + 1,
			is_active = TRUE
		RETURNING `+patternColumns,
		p.ID.String(), string(p.UserID), string(p.Type), p.Description,
		p.Confidence, p.SampleSize, evidenceJSON,
		p.FirstDetectedAt.Time(), p.LastSeenAt.Time())

	return scanPattern(row)
}

// ActivePatterns returns a user's active patterns, confidence descending with
// sample size as the tie-break.
func (r *PatternRepositoryImpl) ActivePatterns(ctx context.Context, userID core.UserID) ([]pattern.Pattern, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+patternColumns+`
		FROM patterns
		WHERE user_id = $1 AND is_active
		ORDER BY confidence DESC, sample_size DESC
	`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []pattern.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// DeactivateStale flips is_active off for patterns not re-observed since the
// cutoff.
func (r *PatternRepositoryImpl) DeactivateStale(ctx context.Context, userID core.UserID, notSeenSince time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patterns SET is_active = FALSE
		WHERE user_id = $1 AND is_active AND last_seen_at < $2
	`, string(userID), notSeenSince)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPattern(row rowScanner) (pattern.Pattern, error) {
	var p pattern.Pattern
	var evidenceJSON []byte
	var firstDetected, lastSeen time.Time

	err := row.Scan(&p.ID, &p.UserID, &p.Type, &p.Description,
		&p.Confidence, &p.SampleSize, &evidenceJSON,
		&firstDetected, &lastSeen, &p.Frequency, &p.IsActive)
	if err != nil {
		return pattern.Pattern{}, err
	}
	if len(evidenceJSON) > 0 {
		json.Unmarshal(evidenceJSON, &p.Evidence)
	}
	p.FirstDetectedAt = core.NewTimestamp(firstDetected)
	p.LastSeenAt = core.NewTimestamp(lastSeen)
	return p, nil
}
