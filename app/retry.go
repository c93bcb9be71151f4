package app

import (
	"context"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	apperrors "github.com/Swapnil565/Jarvis/internal/errors"
	"github.com/Swapnil565/Jarvis/ports"
)

// RetryPolicy bounds retries of idempotent reads against external stores.
// Writes are never blindly retried.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is used when a caller passes the zero value.
var DefaultRetryPolicy = RetryPolicy{Attempts: 2, Backoff: 200 * time.Millisecond}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = DefaultRetryPolicy.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultRetryPolicy.Backoff
	}
	return p
}

// fetchEvents reads a user's event window with bounded retry and linear
// backoff. A store failure after all attempts surfaces as an
// external-service error.
func fetchEvents(ctx context.Context, store ports.EventStore, userID core.UserID, start, end time.Time, policy RetryPolicy) ([]event.Event, error) {
	policy = policy.normalized()

	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(policy.Backoff * time.Duration(attempt)):
			}
		}
		events, err := store.GetEvents(ctx, userID, start, end, nil)
		if err == nil {
			return events, nil
		}
		lastErr = err
	}
	return nil, apperrors.WithCode(apperrors.CodeExternalService, lastErr)
}
