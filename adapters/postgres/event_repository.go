package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/ports"
)

// EventRepositoryImpl implements EventStore for PostgreSQL. The pipeline only
// reads events; ingestion writes them through a separate collaborator.
type EventRepositoryImpl struct {
	db *sqlx.DB
}

// NewEventRepository creates a new PostgreSQL event store.
func NewEventRepository(db *sqlx.DB) ports.EventStore {
	return &EventRepositoryImpl{db: db}
}

// GetEvents returns a user's events in [start, end), ascending, optionally
// filtered to one category.
func (r *EventRepositoryImpl) GetEvents(ctx context.Context, userID core.UserID, start, end time.Time, category *event.Category) ([]event.Event, error) {
	query := `
		SELECT id, user_id, category, event_type, COALESCE(feeling, ''), payload, occurred_at
		FROM events
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
	`
	args := []interface{}{string(userID), start, end}
	if category != nil {
		query += " AND category = $4"
		args = append(args, string(*category))
	}
	query += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var e event.Event
		var payloadJSON []byte
		var occurredAt time.Time

		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.EventType, &e.Feeling, &payloadJSON, &occurredAt); err != nil {
			return nil, err
		}
		if len(payloadJSON) > 0 {
			json.Unmarshal(payloadJSON, &e.Payload)
		}
		e.OccurredAt = core.NewTimestamp(occurredAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// ActiveUsers lists users with at least one event since the cutoff.
func (r *EventRepositoryImpl) ActiveUsers(ctx context.Context, since time.Time) ([]core.UserID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM events WHERE occurred_at >= $1
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []core.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, core.UserID(id))
	}
	return users, rows.Err()
}
