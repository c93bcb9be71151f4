package workflow

import (
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/intervention"
)

// RunStatus is the workflow state machine's terminal (and transient) states.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusPartial   RunStatus = "partial"
	StatusFailed    RunStatus = "failed"
)

// Stage names the sequential phases of the periodic workflow.
type Stage string

const (
	StageCorrelation  Stage = "correlation"
	StageForecast     Stage = "forecast"
	StageIntervention Stage = "intervention"
)

// RunType distinguishes the two orchestrator entry points.
type RunType string

const (
	RunPeriodic       RunType = "periodic"
	RunEventTriggered RunType = "event_triggered"
)

// StageTiming records one stage's outcome inside a run.
type StageTiming struct {
	Stage      Stage  `json:"stage"`
	DurationMs int64  `json:"duration_ms"`
	Err        string `json:"error,omitempty"`
}

// PeriodicResult is the periodic workflow's caller-facing summary. It is
// always returned, never thrown: Status plus Errors let a caller tell
// "nothing to report" apart from "something broke".
type PeriodicResult struct {
	UserID                 core.UserID   `json:"user_id"`
	PatternsDetected       int           `json:"patterns_detected"`
	ForecastGenerated      bool          `json:"forecast_generated"`
	InterventionsTriggered int           `json:"interventions_triggered"`
	Status                 RunStatus     `json:"status"`
	Errors                 []string      `json:"errors"`
	DurationMs             int64         `json:"duration_ms"`
	Stages                 []StageTiming `json:"stages"`
}

// EventTriggeredResult is the fast path's summary. ImmediateFeedback is nil
// on failure rather than an error, preserving the low-latency contract.
type EventTriggeredResult struct {
	ImmediateFeedback *intervention.Intervention `json:"immediate_feedback"`
	DurationMs        int64                      `json:"duration_ms"`
}

// StatusReport answers a status query from cache without recomputation.
type StatusReport struct {
	LastRunAt  *time.Time `json:"last_run_at"`
	Status     *RunStatus `json:"status"`
	CacheAgeMs *int64     `json:"cache_age_ms"`
}

// RunRecord is the persisted execution-telemetry row for one workflow run.
type RunRecord struct {
	ID         core.RunID     `json:"id"`
	UserID     core.UserID    `json:"user_id"`
	RunType    RunType        `json:"run_type"`
	Status     RunStatus      `json:"status"`
	Patterns   int            `json:"patterns_detected"`
	Forecasted bool           `json:"forecast_generated"`
	Triggered  int            `json:"interventions_triggered"`
	DurationMs int64          `json:"duration_ms"`
	Errors     []string       `json:"errors,omitempty"`
	CreatedAt  core.Timestamp `json:"created_at"`
}

// StatusFor derives the run status from stage failures: succeeded with no
// failures, failed when every stage failed, partial otherwise.
func StatusFor(totalStages, failedStages int) RunStatus {
	switch {
	case failedStages == 0:
		return StatusSucceeded
	case failedStages >= totalStages:
		return StatusFailed
	default:
		return StatusPartial
	}
}
