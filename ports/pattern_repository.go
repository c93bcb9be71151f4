package ports

import (
	"context"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/pattern"
)

// PatternRepository persists detected patterns. Upserts are keyed by
// (user_id, pattern_type, description) and must merge atomically so that
// concurrent re-detection of the same logical pattern cannot lose updates.
type PatternRepository interface {
	// UpsertPattern inserts a new pattern or merges a re-detection into the
	// existing row (frequency increment, weighted confidence re-average).
	// Returns the stored pattern after the merge.
	UpsertPattern(ctx context.Context, p pattern.Pattern) (pattern.Pattern, error)

	// ActivePatterns returns a user's active patterns, confidence descending.
	ActivePatterns(ctx context.Context, userID core.UserID) ([]pattern.Pattern, error)

	// DeactivateStale flips is_active off for patterns not re-observed since
	// the cutoff. Returns how many were deactivated.
	DeactivateStale(ctx context.Context, userID core.UserID, notSeenSince time.Time) (int, error)
}
