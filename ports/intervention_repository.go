package ports

import (
	"context"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/intervention"
)

// InterventionRepository persists interventions and their delivery/feedback
// lifecycle. Rows accumulate; nothing is deleted.
type InterventionRepository interface {
	// SaveIntervention appends a new intervention.
	SaveIntervention(ctx context.Context, iv intervention.Intervention) (core.InterventionID, error)

	// HasRecentUnacknowledged reports whether an intervention with the same
	// (user_id, type, title) was created after the cutoff and is not yet
	// acknowledged. Backs the deduplication window.
	HasRecentUnacknowledged(ctx context.Context, userID core.UserID, typ intervention.Type, title string, createdAfter time.Time) (bool, error)

	// ListRecent returns a user's most recent interventions, newest first.
	ListRecent(ctx context.Context, userID core.UserID, limit int) ([]intervention.Intervention, error)

	// MarkDelivered stamps delivered_at. Set by the delivery collaborator.
	MarkDelivered(ctx context.Context, id core.InterventionID, at time.Time) error

	// Acknowledge stamps acknowledged_at.
	Acknowledge(ctx context.Context, id core.InterventionID, at time.Time) error

	// Rate records user feedback. Rating must be 1..5.
	Rate(ctx context.Context, id core.InterventionID, rating int, wasHelpful bool) error
}
