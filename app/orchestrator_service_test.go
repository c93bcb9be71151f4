package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/domain/workflow"
	"github.com/Swapnil565/Jarvis/internal/testkit"
)

type orchestratorFixture struct {
	svc   *OrchestratorService
	store *testkit.InMemoryEventStore
	runs  *testkit.InMemoryWorkflowRepository
	ivs   *testkit.InMemoryInterventionRepository
}

func newOrchestratorFixture() orchestratorFixture {
	store := testkit.NewEventStore()
	patterns := testkit.NewPatternRepository()
	ivRepo := testkit.NewInterventionRepository()
	runs := testkit.NewWorkflowRepository()

	wcfg := workflowConfig()
	correlation := NewCorrelationService(store, patterns, analyticsConfig(), DefaultRetryPolicy)
	forecaster := NewForecastService(store, forecastConfig(), DefaultRetryPolicy)
	rules := NewInterventionService(ivRepo, nil, wcfg, 7)
	svc := NewOrchestratorService(correlation, forecaster, rules, store, runs, wcfg, 30, DefaultRetryPolicy)

	return orchestratorFixture{svc: svc, store: store, runs: runs, ivs: ivRepo}
}

func TestPeriodicRunWithEmptyHistoryDegradesCleanly(t *testing.T) {
	fx := newOrchestratorFixture()
	user := testkit.UserN(1)

	result := fx.svc.RunPeriodicWorkflow(context.Background(), user)

	assert.Contains(t, []workflow.RunStatus{workflow.StatusPartial, workflow.StatusFailed}, result.Status)
	assert.Zero(t, result.PatternsDetected)
	assert.False(t, result.ForecastGenerated)
	assert.Zero(t, result.InterventionsTriggered)
	assert.NotEmpty(t, result.Errors, "the forecast stage failure must be recorded")
	assert.Len(t, result.Stages, 3, "every stage still runs")
}

func TestPeriodicRunHappyPath(t *testing.T) {
	fx := newOrchestratorFixture()
	user := testkit.UserN(2)
	now := time.Now().UTC()

	start := now.AddDate(0, 0, -25).Truncate(24 * time.Hour)
	fx.store.Add(testkit.WorkoutTaskHistory(user, start, 10, 10, 8, 3)...)
	fx.store.Add(testkit.HighIntensityStreak(user, now, 7)...)

	result := fx.svc.RunPeriodicWorkflow(context.Background(), user)

	assert.Equal(t, workflow.StatusSucceeded, result.Status)
	assert.Greater(t, result.PatternsDetected, 0)
	assert.True(t, result.ForecastGenerated)
	assert.Greater(t, result.InterventionsTriggered, 0)
	assert.Empty(t, result.Errors)

	// run telemetry is archived
	require.Len(t, fx.runs.Records, 1)
	rec := fx.runs.Records[0]
	assert.Equal(t, workflow.RunPeriodic, rec.RunType)
	assert.Equal(t, workflow.StatusSucceeded, rec.Status)
	assert.Equal(t, result.PatternsDetected, rec.Patterns)
}

func TestStatusQueryReadsFromCache(t *testing.T) {
	fx := newOrchestratorFixture()
	user := testkit.UserN(3)

	before := fx.svc.GetWorkflowStatus(user)
	assert.Nil(t, before.LastRunAt)
	assert.Nil(t, before.Status)

	fx.svc.RunPeriodicWorkflow(context.Background(), user)

	after := fx.svc.GetWorkflowStatus(user)
	require.NotNil(t, after.LastRunAt)
	require.NotNil(t, after.Status)
	require.NotNil(t, after.CacheAgeMs)
	assert.GreaterOrEqual(t, *after.CacheAgeMs, int64(0))
}

func TestEventTriggeredReturnsImmediateFeedback(t *testing.T) {
	fx := newOrchestratorFixture()
	user := testkit.UserN(4)
	now := time.Now().UTC()

	// six hard days in the store; the seventh arrives as the trigger
	fx.store.Add(testkit.HighIntensityStreak(user, now, 6)...)
	trigger := testkit.WorkoutEvent(user, now, "heavy")

	result, err := fx.svc.RunEventTriggeredWorkflow(context.Background(), trigger)
	require.NoError(t, err)

	require.NotNil(t, result.ImmediateFeedback)
	assert.Equal(t, intervention.TypeWarning, result.ImmediateFeedback.Type)
	assert.True(t, result.ImmediateFeedback.Urgency.IsUrgent())
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))

	// only urgent rules ran and the result was persisted
	require.Len(t, fx.ivs.Stored(), 1)
}

func TestEventTriggeredQuietWhenNothingUrgent(t *testing.T) {
	fx := newOrchestratorFixture()
	user := testkit.UserN(5)

	trigger := testkit.MeditationEvent(user, time.Now().UTC())
	result, err := fx.svc.RunEventTriggeredWorkflow(context.Background(), trigger)
	require.NoError(t, err)
	assert.Nil(t, result.ImmediateFeedback)
}

func TestEventTriggeredRejectsInvalidEvent(t *testing.T) {
	fx := newOrchestratorFixture()

	_, err := fx.svc.RunEventTriggeredWorkflow(context.Background(), event.Event{})
	require.Error(t, err)
}

func TestWorkflowCacheExpiryAndEviction(t *testing.T) {
	cache := NewWorkflowCache(50*time.Millisecond, 2)

	cache.Put(testkit.UserN(1), CacheEntry{StoredAt: time.Now().Add(-time.Minute)})
	_, ok := cache.Get(testkit.UserN(1))
	assert.False(t, ok, "expired entry must miss")

	cache.Put(testkit.UserN(2), CacheEntry{StoredAt: time.Now().Add(-2 * time.Second)})
	cache.Put(testkit.UserN(3), CacheEntry{StoredAt: time.Now().Add(-time.Second)})
	cache.Put(testkit.UserN(4), CacheEntry{StoredAt: time.Now()})
	assert.Equal(t, 2, cache.Len(), "size bound must hold")

	_, ok = cache.Get(testkit.UserN(2))
	assert.False(t, ok, "oldest entry is evicted first")
	_, ok = cache.Get(testkit.UserN(4))
	assert.True(t, ok)
}

func TestCacheMergeInterventions(t *testing.T) {
	cache := NewWorkflowCache(time.Minute, 10)
	user := testkit.UserN(6)

	cache.Put(user, CacheEntry{
		Result:   workflow.PeriodicResult{InterventionsTriggered: 1},
		StoredAt: time.Now(),
	})
	cache.MergeInterventions(user, []intervention.Intervention{{Title: "fast path"}})

	entry, ok := cache.Get(user)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Result.InterventionsTriggered)
	require.Len(t, entry.Interventions, 1)
	assert.Equal(t, "fast path", entry.Interventions[0].Title)
}
