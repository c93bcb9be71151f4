package ports

import (
	"context"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
)

// EventStore is the read contract over the append-only event history. The
// pipeline never mutates or deletes events.
type EventStore interface {
	// GetEvents returns a user's events in [start, end), ascending by
	// occurred_at, optionally filtered to one category.
	GetEvents(ctx context.Context, userID core.UserID, start, end time.Time, category *event.Category) ([]event.Event, error)

	// ActiveUsers lists users with at least one event since the given time.
	// Used by the external scheduler to fan out periodic workflow runs.
	ActiveUsers(ctx context.Context, since time.Time) ([]core.UserID, error)
}
