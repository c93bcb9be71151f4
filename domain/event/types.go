package event

import (
	"sort"
	"strings"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
)

// Category is the life dimension an event belongs to.
type Category string

const (
	CategoryPhysical  Category = "physical"
	CategoryMental    Category = "mental"
	CategorySpiritual Category = "spiritual"
)

// Valid reports whether the category is one of the three dimensions.
func (c Category) Valid() bool {
	switch c {
	case CategoryPhysical, CategoryMental, CategorySpiritual:
		return true
	}
	return false
}

// Event is an immutable logged activity. Created by the ingestion collaborator,
// never mutated by the pipeline.
type Event struct {
	ID         core.EventID           `json:"id" db:"id"`
	UserID     core.UserID            `json:"user_id" db:"user_id"`
	Category   Category               `json:"category" db:"category"`
	EventType  string                 `json:"event_type" db:"event_type"`
	Feeling    string                 `json:"feeling,omitempty" db:"feeling"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt core.Timestamp         `json:"occurred_at" db:"occurred_at"`
}

// Validate checks data-model invariants before persistence or analysis.
func (e Event) Validate() error {
	if e.UserID == "" {
		return core.NewValidationError("user_id", "must not be empty")
	}
	if !e.Category.Valid() {
		return core.ErrInvalidCategory
	}
	if strings.TrimSpace(e.EventType) == "" {
		return core.NewValidationError("event_type", "must not be empty")
	}
	if e.OccurredAt.IsZero() {
		return core.NewValidationError("occurred_at", "must be set")
	}
	return nil
}

// payloadString reads a string attribute from the payload.
func (e Event) payloadString(key string) string {
	if e.Payload == nil {
		return ""
	}
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

// payloadNumber reads a numeric attribute from the payload. JSON decoding
// yields float64; ints show up when events are built in-process.
func (e Event) payloadNumber(key string) (float64, bool) {
	if e.Payload == nil {
		return 0, false
	}
	switch v := e.Payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// payloadBool reads a boolean attribute from the payload.
func (e Event) payloadBool(key string) bool {
	if e.Payload == nil {
		return false
	}
	v, ok := e.Payload[key].(bool)
	return ok && v
}

// Intensity returns the payload intensity label ("light", "moderate", "heavy").
func (e Event) Intensity() string {
	return strings.ToLower(e.payloadString("intensity"))
}

// IsHighIntensity reports whether this is a heavy/high-intensity physical event.
func (e Event) IsHighIntensity() bool {
	if e.Category != CategoryPhysical {
		return false
	}
	switch e.Intensity() {
	case "heavy", "high", "intense":
		return true
	}
	return false
}

// IsWorkout reports whether this is a workout-type physical event.
func (e Event) IsWorkout() bool {
	return e.Category == CategoryPhysical && e.EventType == "workout"
}

// IsRest reports whether this event records deliberate rest.
func (e Event) IsRest() bool {
	return e.EventType == "rest" || e.Intensity() == "rest"
}

// IsRecovery reports whether this event counts as a recovery activity:
// explicit rest, sleep logging, or spiritual practice.
func (e Event) IsRecovery() bool {
	if e.IsRest() || e.EventType == "sleep" {
		return true
	}
	return e.Category == CategorySpiritual
}

// IsTask reports whether this is a mental task event.
func (e Event) IsTask() bool {
	return e.Category == CategoryMental && e.EventType == "task"
}

// IsCompletedTask reports whether this is a task marked completed.
func (e Event) IsCompletedTask() bool {
	return e.IsTask() && e.payloadBool("completed")
}

// IsOpenTask reports whether this is a task not yet completed.
func (e Event) IsOpenTask() bool {
	return e.IsTask() && !e.payloadBool("completed")
}

// IsHighPriority reports whether the payload flags a high-priority item.
func (e Event) IsHighPriority() bool {
	p := strings.ToLower(e.payloadString("priority"))
	return p == "high" || p == "urgent"
}

// IntensityScore maps the intensity label onto a numeric load.
func (e Event) IntensityScore() float64 {
	switch e.Intensity() {
	case "heavy", "high", "intense":
		return 3
	case "moderate", "medium":
		return 2
	case "light", "low":
		return 1
	}
	if n, ok := e.payloadNumber("intensity"); ok {
		return n
	}
	return 0
}

// Duration returns the payload duration in minutes, if present.
func (e Event) Duration() (time.Duration, bool) {
	n, ok := e.payloadNumber("duration")
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Minute, true
}

// DayBucket groups a calendar day's events.
type DayBucket struct {
	Day    core.Day
	Events []Event
}

// GroupByDay buckets events into ascending calendar days.
func GroupByDay(events []Event) []DayBucket {
	byDay := make(map[core.Day][]Event)
	for _, e := range events {
		d := e.OccurredAt.Day()
		byDay[d] = append(byDay[d], e)
	}

	days := make([]core.Day, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	buckets := make([]DayBucket, 0, len(days))
	for _, d := range days {
		buckets = append(buckets, DayBucket{Day: d, Events: byDay[d]})
	}
	return buckets
}

// CountWhere counts the bucket's events matching the predicate.
func (b DayBucket) CountWhere(pred func(Event) bool) int {
	n := 0
	for _, e := range b.Events {
		if pred(e) {
			n++
		}
	}
	return n
}

// Any reports whether any event in the bucket matches the predicate.
func (b DayBucket) Any(pred func(Event) bool) bool {
	for _, e := range b.Events {
		if pred(e) {
			return true
		}
	}
	return false
}
