package app

import (
	"context"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/domain/workflow"
	"github.com/Swapnil565/Jarvis/internal"
	"github.com/Swapnil565/Jarvis/internal/config"
	"github.com/Swapnil565/Jarvis/ports"
)

// OrchestratorService sequences the three analysis stages for one user and
// owns the per-user result cache. Stage failures are isolated: a failed stage
// is recorded and the remaining stages still run on whatever inputs exist.
type OrchestratorService struct {
	correlation   *CorrelationService
	forecaster    *ForecastService
	interventions *InterventionService

	store ports.EventStore
	runs  ports.WorkflowRepository
	cache *WorkflowCache

	cfg          config.WorkflowConfig
	lookbackDays int // event window feeding the intervention rules
	retry        RetryPolicy
	log          *internal.Logger
}

// NewOrchestratorService wires the pipeline. lookbackDays bounds the event
// window the intervention rules see.
func NewOrchestratorService(
	correlation *CorrelationService,
	forecaster *ForecastService,
	interventions *InterventionService,
	store ports.EventStore,
	runs ports.WorkflowRepository,
	cfg config.WorkflowConfig,
	lookbackDays int,
	retry RetryPolicy,
) *OrchestratorService {
	return &OrchestratorService{
		correlation:   correlation,
		forecaster:    forecaster,
		interventions: interventions,
		store:         store,
		runs:          runs,
		cache:         NewWorkflowCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		cfg:           cfg,
		lookbackDays:  lookbackDays,
		retry:         retry,
		log:           internal.NewDefaultLogger("orchestrator"),
	}
}

// Cache exposes the result cache to read-side services.
func (s *OrchestratorService) Cache() *WorkflowCache { return s.cache }

// RunPeriodicWorkflow executes correlation, forecast, and intervention in
// order under the periodic time budget. It always returns a result; failures
// show up in Status and Errors, never as a thrown error.
func (s *OrchestratorService) RunPeriodicWorkflow(ctx context.Context, userID core.UserID) workflow.PeriodicResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PeriodicBudget)
	defer cancel()

	started := time.Now()
	result := workflow.PeriodicResult{UserID: userID, Status: workflow.StatusRunning}

	var (
		patterns []pattern.Pattern
		fc       *forecast.Forecast
		crash    *forecast.CrashPrediction
		ivs      []intervention.Intervention
		failed   int
	)

	runStage := func(stage workflow.Stage, fn func() error) {
		stageStart := time.Now()
		err := fn()
		timing := workflow.StageTiming{Stage: stage, DurationMs: time.Since(stageStart).Milliseconds()}
		if err != nil {
			timing.Err = err.Error()
			result.Errors = append(result.Errors, string(stage)+": "+err.Error())
			failed++
			s.log.Warn("stage %s failed for user %s: %v", stage, userID, err)
		}
		result.Stages = append(result.Stages, timing)
	}

	runStage(workflow.StageCorrelation, func() error {
		var err error
		patterns, err = s.correlation.Detect(ctx, userID)
		return err
	})
	result.PatternsDetected = len(patterns)

	runStage(workflow.StageForecast, func() error {
		var err error
		fc, err = s.forecaster.Generate(ctx, userID)
		if err != nil {
			return err
		}
		c := s.forecaster.PredictCrash(fc)
		crash = &c
		return nil
	})
	result.ForecastGenerated = fc != nil

	runStage(workflow.StageIntervention, func() error {
		in, err := s.ruleInput(ctx, userID, patterns, fc, crash)
		if err != nil {
			return err
		}
		ivs, err = s.interventions.Check(ctx, in)
		return err
	})
	result.InterventionsTriggered = len(ivs)

	result.Status = workflow.StatusFor(len(result.Stages), failed)
	result.DurationMs = time.Since(started).Milliseconds()

	s.cache.Put(userID, CacheEntry{
		Result:        result,
		Patterns:      patterns,
		Forecast:      fc,
		Crash:         crash,
		Interventions: ivs,
		StoredAt:      time.Now().UTC(),
	})
	s.saveRun(userID, workflow.RunPeriodic, result.Status, result)

	s.log.Info("periodic run for user %s: status=%s patterns=%d forecast=%t interventions=%d in %dms",
		userID, result.Status, result.PatternsDetected, result.ForecastGenerated, result.InterventionsTriggered, result.DurationMs)
	return result
}

// RunEventTriggeredWorkflow is the low-latency path fired on event ingestion.
// Only urgent rules run, against cached analysis plus a short fresh event
// window. Internal failures yield nil feedback, not an error; the error
// return is reserved for an invalid input event.
func (s *OrchestratorService) RunEventTriggeredWorkflow(ctx context.Context, ev event.Event) (workflow.EventTriggeredResult, error) {
	if err := ev.Validate(); err != nil {
		return workflow.EventTriggeredResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.EventBudget)
	defer cancel()
	started := time.Now()

	in, err := s.ruleInput(ctx, ev.UserID, nil, nil, nil)
	if err != nil {
		s.log.Warn("event-triggered fetch failed for user %s: %v", ev.UserID, err)
		return workflow.EventTriggeredResult{DurationMs: time.Since(started).Milliseconds()}, nil
	}
	in.Events = appendIfMissing(in.Events, ev)
	in.Buckets = event.GroupByDay(in.Events)

	if entry, ok := s.cache.Get(ev.UserID); ok {
		in.Patterns = entry.Patterns
		in.Forecast = entry.Forecast
		in.Crash = entry.Crash
	}

	ivs, err := s.interventions.CheckUrgent(ctx, in)
	if err != nil {
		s.log.Warn("urgent rule check failed for user %s: %v", ev.UserID, err)
	}

	result := workflow.EventTriggeredResult{DurationMs: time.Since(started).Milliseconds()}
	if len(ivs) > 0 {
		result.ImmediateFeedback = &ivs[0]
		s.cache.MergeInterventions(ev.UserID, ivs)
	}

	status := workflow.StatusSucceeded
	if err != nil {
		status = workflow.StatusFailed
	}
	s.saveRun(ev.UserID, workflow.RunEventTriggered, status, workflow.PeriodicResult{
		InterventionsTriggered: len(ivs),
		DurationMs:             result.DurationMs,
	})
	return result, nil
}

// GetWorkflowStatus answers from the cache without touching storage.
func (s *OrchestratorService) GetWorkflowStatus(userID core.UserID) workflow.StatusReport {
	return s.cache.Status(userID)
}

// ruleInput assembles the evidence window the intervention rules evaluate.
func (s *OrchestratorService) ruleInput(ctx context.Context, userID core.UserID, patterns []pattern.Pattern, fc *forecast.Forecast, crash *forecast.CrashPrediction) (RuleInput, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -s.lookbackDays)
	events, err := fetchEvents(ctx, s.store, userID, start, now.Add(time.Hour), s.retry)
	if err != nil {
		return RuleInput{}, err
	}
	return RuleInput{
		UserID:   userID,
		Now:      now,
		Events:   events,
		Buckets:  event.GroupByDay(events),
		Patterns: patterns,
		Forecast: fc,
		Crash:    crash,
	}, nil
}

// saveRun archives run telemetry best-effort.
func (s *OrchestratorService) saveRun(userID core.UserID, typ workflow.RunType, status workflow.RunStatus, result workflow.PeriodicResult) {
	if s.runs == nil {
		return
	}
	rec := workflow.RunRecord{
		ID:         core.RunID(core.NewID()),
		UserID:     userID,
		RunType:    typ,
		Status:     status,
		Patterns:   result.PatternsDetected,
		Forecasted: result.ForecastGenerated,
		Triggered:  result.InterventionsTriggered,
		DurationMs: result.DurationMs,
		Errors:     result.Errors,
		CreatedAt:  core.Now(),
	}
	// telemetry write gets its own short deadline, detached from the
	// (possibly expired) run context
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.runs.SaveRun(ctx, rec); err != nil {
		s.log.Warn("failed to archive run record for user %s: %v", userID, err)
	}
}

func appendIfMissing(events []event.Event, ev event.Event) []event.Event {
	for _, e := range events {
		if e.ID == ev.ID {
			return events
		}
	}
	return append(events, ev)
}
