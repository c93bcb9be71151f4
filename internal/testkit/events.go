package testkit

import (
	"fmt"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
)

// NewEvent builds a validated event at the given time.
func NewEvent(userID core.UserID, category event.Category, eventType string, at time.Time, payload map[string]interface{}) event.Event {
	return event.Event{
		ID:         core.EventID(core.NewID()),
		UserID:     userID,
		Category:   category,
		EventType:  eventType,
		Payload:    payload,
		OccurredAt: core.NewTimestamp(at),
	}
}

// WorkoutEvent builds a physical workout at the given time.
func WorkoutEvent(userID core.UserID, at time.Time, intensity string) event.Event {
	return NewEvent(userID, event.CategoryPhysical, "workout", at, map[string]interface{}{
		"intensity": intensity,
		"duration":  45,
	})
}

// TaskEvent builds a mental task event.
func TaskEvent(userID core.UserID, at time.Time, completed bool, priority string) event.Event {
	payload := map[string]interface{}{"completed": completed}
	if priority != "" {
		payload["priority"] = priority
	}
	return NewEvent(userID, event.CategoryMental, "task", at, payload)
}

// MeditationEvent builds a spiritual meditation event.
func MeditationEvent(userID core.UserID, at time.Time) event.Event {
	return NewEvent(userID, event.CategorySpiritual, "meditation", at, map[string]interface{}{
		"duration": 15,
	})
}

// RestEvent builds an explicit rest-day event.
func RestEvent(userID core.UserID, at time.Time) event.Event {
	return NewEvent(userID, event.CategoryPhysical, "rest", at, nil)
}

// WorkoutTaskHistory builds the canonical split history: workoutDays days
// each carrying one workout plus tasksOnWorkoutDays completed tasks, followed
// by plainDays days carrying tasksOnPlainDays completed tasks and no workout.
// Days are consecutive starting at start (midnight-anchored).
func WorkoutTaskHistory(userID core.UserID, start time.Time, workoutDays, plainDays, tasksOnWorkoutDays, tasksOnPlainDays int) []event.Event {
	var events []event.Event
	day := start
	for i := 0; i < workoutDays; i++ {
		events = append(events, WorkoutEvent(userID, day.Add(8*time.Hour), "moderate"))
		for t := 0; t < tasksOnWorkoutDays; t++ {
			events = append(events, TaskEvent(userID, day.Add(time.Duration(10+t)*time.Hour), true, ""))
		}
		day = day.AddDate(0, 0, 1)
	}
	for i := 0; i < plainDays; i++ {
		for t := 0; t < tasksOnPlainDays; t++ {
			events = append(events, TaskEvent(userID, day.Add(time.Duration(10+t)*time.Hour), true, ""))
		}
		day = day.AddDate(0, 0, 1)
	}
	return events
}

// HighIntensityStreak builds `days` consecutive days each with one heavy
// workout and no rest events, ending the day before `end`.
func HighIntensityStreak(userID core.UserID, end time.Time, days int) []event.Event {
	var events []event.Event
	for i := days; i >= 1; i-- {
		at := end.AddDate(0, 0, -i).Add(7 * time.Hour)
		events = append(events, WorkoutEvent(userID, at, "heavy"))
	}
	return events
}

// OpenTaskBacklog builds `count` open (uncompleted) tasks logged at t,
// highPriority of them flagged high priority.
func OpenTaskBacklog(userID core.UserID, at time.Time, count, highPriority int) []event.Event {
	var events []event.Event
	for i := 0; i < count; i++ {
		priority := ""
		if i < highPriority {
			priority = "high"
		}
		ev := TaskEvent(userID, at.Add(time.Duration(i)*time.Minute), false, priority)
		events = append(events, ev)
	}
	return events
}

// DailyEnergyHistory builds `days` days of mixed activity whose intensity
// follows the supplied per-day workout counts, useful for forecast series.
func DailyEnergyHistory(userID core.UserID, start time.Time, workoutsPerDay []int) []event.Event {
	var events []event.Event
	for i, n := range workoutsPerDay {
		day := start.AddDate(0, 0, i)
		for w := 0; w < n; w++ {
			events = append(events, WorkoutEvent(userID, day.Add(time.Duration(7+w)*time.Hour), "heavy"))
		}
		// one completed task per day keeps the mental dimension populated
		events = append(events, TaskEvent(userID, day.Add(13*time.Hour), true, ""))
	}
	return events
}

// UserN returns a deterministic user ID for table-driven tests.
func UserN(n int) core.UserID {
	return core.UserID(fmt.Sprintf("user-%04d", n))
}
