// Package testkit provides in-memory adapters and synthetic event histories
// shared by service tests. The in-memory pattern repository performs the same
// keyed merge the postgres adapter does, so idempotence tests exercise the
// real merge semantics.
package testkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/domain/workflow"
)

// InMemoryEventStore implements ports.EventStore over a slice.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events []event.Event

	// Err, when set, is returned by every read. Lets tests simulate an
	// unreachable store.
	Err error
}

// NewEventStore creates an empty in-memory event store.
func NewEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

// Add appends events to the store.
func (s *InMemoryEventStore) Add(events ...event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// GetEvents returns a user's events in [start, end), ascending.
func (s *InMemoryEventStore) GetEvents(ctx context.Context, userID core.UserID, start, end time.Time, category *event.Category) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var out []event.Event
	for _, e := range s.events {
		if e.UserID != userID {
			continue
		}
		at := e.OccurredAt.Time()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		if category != nil && e.Category != *category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

// ActiveUsers lists users with events since the cutoff.
func (s *InMemoryEventStore) ActiveUsers(ctx context.Context, since time.Time) ([]core.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	seen := make(map[core.UserID]bool)
	var out []core.UserID
	for _, e := range s.events {
		if e.OccurredAt.Time().Before(since) || seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		out = append(out, e.UserID)
	}
	return out, nil
}

// InMemoryPatternRepository implements ports.PatternRepository with the keyed
// merge performed under a single lock.
type InMemoryPatternRepository struct {
	mu       sync.Mutex
	byKey    map[string]pattern.Pattern
	Upserts  int
	FailWith error
}

// NewPatternRepository creates an empty in-memory pattern repository.
func NewPatternRepository() *InMemoryPatternRepository {
	return &InMemoryPatternRepository{byKey: make(map[string]pattern.Pattern)}
}

// UpsertPattern inserts or merges by identity key.
func (r *InMemoryPatternRepository) UpsertPattern(ctx context.Context, p pattern.Pattern) (pattern.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return pattern.Pattern{}, r.FailWith
	}
	if err := p.Validate(); err != nil {
		return pattern.Pattern{}, err
	}
	r.Upserts++

	key := p.IdentityKey()
	existing, ok := r.byKey[key]
	if !ok {
		if p.ID.IsEmpty() {
			p.ID = core.PatternID(core.NewID())
		}
		if p.Frequency == 0 {
			p.Frequency = 1
		}
		p.IsActive = true
		r.byKey[key] = p
		return p, nil
	}

	merged := pattern.Merge(existing, p)
	r.byKey[key] = merged
	return merged, nil
}

// ActivePatterns returns active patterns, confidence descending.
func (r *InMemoryPatternRepository) ActivePatterns(ctx context.Context, userID core.UserID) ([]pattern.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}

	var out []pattern.Pattern
	for _, p := range r.byKey {
		if p.UserID == userID && p.IsActive {
			out = append(out, p)
		}
	}
	pattern.SortCandidates(out)
	return out, nil
}

// DeactivateStale flips is_active off for patterns unseen since the cutoff.
func (r *InMemoryPatternRepository) DeactivateStale(ctx context.Context, userID core.UserID, notSeenSince time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return 0, r.FailWith
	}

	n := 0
	for key, p := range r.byKey {
		if p.UserID == userID && p.IsActive && p.LastSeenAt.Time().Before(notSeenSince) {
			p.IsActive = false
			r.byKey[key] = p
			n++
		}
	}
	return n, nil
}

// Count returns how many distinct pattern rows exist.
func (r *InMemoryPatternRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

// InMemoryInterventionRepository implements ports.InterventionRepository.
type InMemoryInterventionRepository struct {
	mu    sync.Mutex
	items []intervention.Intervention
}

// NewInterventionRepository creates an empty in-memory intervention repository.
func NewInterventionRepository() *InMemoryInterventionRepository {
	return &InMemoryInterventionRepository{}
}

// SaveIntervention appends the intervention.
func (r *InMemoryInterventionRepository) SaveIntervention(ctx context.Context, iv intervention.Intervention) (core.InterventionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := iv.Validate(); err != nil {
		return "", err
	}
	if iv.ID.IsEmpty() {
		iv.ID = core.InterventionID(core.NewID())
	}
	r.items = append(r.items, iv)
	return iv.ID, nil
}

// HasRecentUnacknowledged backs the dedup window check.
func (r *InMemoryInterventionRepository) HasRecentUnacknowledged(ctx context.Context, userID core.UserID, typ intervention.Type, title string, createdAfter time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, iv := range r.items {
		if iv.UserID == userID && iv.Type == typ && iv.Title == title &&
			iv.AcknowledgedAt == nil && iv.CreatedAt.Time().After(createdAfter) {
			return true, nil
		}
	}
	return false, nil
}

// ListRecent returns interventions newest first.
func (r *InMemoryInterventionRepository) ListRecent(ctx context.Context, userID core.UserID, limit int) ([]intervention.Intervention, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []intervention.Intervention
	for _, iv := range r.items {
		if iv.UserID == userID {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryInterventionRepository) find(id core.InterventionID) (int, bool) {
	for i := range r.items {
		if r.items[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// MarkDelivered stamps delivered_at.
func (r *InMemoryInterventionRepository) MarkDelivered(ctx context.Context, id core.InterventionID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(id)
	if !ok {
		return core.ErrInterventionNotFound
	}
	ts := core.NewTimestamp(at)
	r.items[i].DeliveredAt = &ts
	return nil
}

// Acknowledge stamps acknowledged_at.
func (r *InMemoryInterventionRepository) Acknowledge(ctx context.Context, id core.InterventionID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(id)
	if !ok {
		return core.ErrInterventionNotFound
	}
	ts := core.NewTimestamp(at)
	r.items[i].AcknowledgedAt = &ts
	return nil
}

// Rate records feedback, enforcing the 1..5 range.
func (r *InMemoryInterventionRepository) Rate(ctx context.Context, id core.InterventionID, rating int, wasHelpful bool) error {
	if rating < 1 || rating > 5 {
		return core.ErrInvalidRating
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(id)
	if !ok {
		return core.ErrInterventionNotFound
	}
	r.items[i].UserRating = &rating
	r.items[i].WasHelpful = &wasHelpful
	return nil
}

// Stored returns a snapshot of everything saved.
func (r *InMemoryInterventionRepository) Stored() []intervention.Intervention {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]intervention.Intervention, len(r.items))
	copy(out, r.items)
	return out
}

// InMemoryWorkflowRepository implements ports.WorkflowRepository.
type InMemoryWorkflowRepository struct {
	mu      sync.Mutex
	Records []workflow.RunRecord
}

// NewWorkflowRepository creates an empty in-memory workflow repository.
func NewWorkflowRepository() *InMemoryWorkflowRepository {
	return &InMemoryWorkflowRepository{}
}

// SaveRun appends the run record.
func (r *InMemoryWorkflowRepository) SaveRun(ctx context.Context, rec workflow.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, rec)
	return nil
}
