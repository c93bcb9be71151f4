package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal/config"
	"github.com/Swapnil565/Jarvis/internal/testkit"
	"github.com/Swapnil565/Jarvis/ports"
)

func workflowConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		PeriodicBudget:  10 * time.Second,
		EventBudget:     2 * time.Second,
		CacheTTL:        24 * time.Hour,
		CacheMaxEntries: 100,
		InterventionCap: 5,
		DedupWindow:     24 * time.Hour,
		BurnoutAlert:    80,
		RetryAttempts:   2,
		RetryBackoff:    time.Millisecond,
	}
}

// failingTextGen always errors, forcing the template fallback path.
type failingTextGen struct{}

func (failingTextGen) Summarize(context.Context, ports.SummaryContext) (string, error) {
	return "", errors.New("llm unavailable")
}

// cannedTextGen returns a fixed phrase.
type cannedTextGen struct{ text string }

func (g cannedTextGen) Summarize(context.Context, ports.SummaryContext) (string, error) {
	return g.text, nil
}

func newInterventionFixture(textgen ports.TextGenerator) (*InterventionService, *testkit.InMemoryInterventionRepository) {
	repo := testkit.NewInterventionRepository()
	svc := NewInterventionService(repo, textgen, workflowConfig(), 7)
	return svc, repo
}

func streakInput(user core.UserID, days int) RuleInput {
	now := time.Now().UTC()
	events := testkit.HighIntensityStreak(user, now, days)
	return RuleInput{
		UserID:  user,
		Now:     now,
		Events:  events,
		Buckets: event.GroupByDay(events),
	}
}

func TestOvertrainingWarningAfterSevenHardDays(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(1)

	saved, err := svc.Check(context.Background(), streakInput(user, 7))
	require.NoError(t, err)
	require.Len(t, saved, 1, "expected exactly one intervention")

	iv := saved[0]
	assert.Equal(t, intervention.TypeWarning, iv.Type)
	assert.Equal(t, intervention.UrgencyHigh, iv.Urgency)
	assert.Contains(t, iv.Message, "7")
	assert.Contains(t, strings.ToLower(iv.Message), "rest")
	assert.Equal(t, 1, iv.SupportingData["recommended_rest_days"])
}

func TestNoOvertrainingWarningBelowThreshold(t *testing.T) {
	svc, _ := newInterventionFixture(nil)

	saved, err := svc.Check(context.Background(), streakInput(testkit.UserN(2), 5))
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestCrashRiskEscalatesToCritical(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(3)
	now := time.Now().UTC()

	f := &forecast.Forecast{
		UserID:      user,
		BurnoutRisk: 85,
		MethodUsed:  "trend",
		Points: []forecast.Point{
			{Capacity: 35, Demand: 75, Category: 4},
			{Capacity: 32, Demand: 78, Category: 4},
			{Capacity: 30, Demand: 80, Category: 5},
		},
	}
	crash := &forecast.CrashPrediction{
		RiskLevel:   forecast.RiskHigh,
		BurnoutRisk: 85,
	}

	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user, Now: now, Forecast: f, Crash: crash,
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	iv := saved[0]
	assert.Equal(t, intervention.TypeForecast, iv.Type)
	assert.Equal(t, intervention.UrgencyCritical, iv.Urgency)
	assert.Contains(t, iv.Message, "85")
}

func TestCrashRiskQuietBelowBurnoutAlert(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(3)
	now := time.Now().UTC()

	// burnout in the 60-80 band classifies high risk but stays below the
	// alert threshold; a single heavy day alone must not page the user
	f := &forecast.Forecast{
		UserID:      user,
		BurnoutRisk: 65,
		MethodUsed:  "trend",
		Points: []forecast.Point{
			{Capacity: 55, Demand: 75, Category: 4},
			{Capacity: 60, Demand: 50, Category: 2},
		},
	}
	crash := &forecast.CrashPrediction{
		RiskLevel:   forecast.RiskHigh,
		BurnoutRisk: 65,
	}

	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user, Now: now, Forecast: f, Crash: crash,
	})
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestCrashRiskHighOnBurnoutAlone(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(3)
	now := time.Now().UTC()

	f := &forecast.Forecast{
		UserID:      user,
		BurnoutRisk: 85,
		MethodUsed:  "trend",
		Points:      []forecast.Point{{Capacity: 60, Demand: 50, Category: 2}},
	}
	crash := &forecast.CrashPrediction{
		RiskLevel:   forecast.RiskHigh,
		BurnoutRisk: 85,
	}

	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user, Now: now, Forecast: f, Crash: crash,
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, intervention.UrgencyHigh, saved[0].Urgency, "no heavy days projected, so not critical")
}

func TestOverwhelmSuggestionOnBacklog(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(4)
	now := time.Now().UTC()

	events := testkit.OpenTaskBacklog(user, now.Add(-time.Hour), 12, 5)
	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user, Now: now, Events: events, Buckets: event.GroupByDay(events),
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	assert.Equal(t, intervention.TypeSuggestion, saved[0].Type)
	assert.Equal(t, intervention.UrgencyMedium, saved[0].Urgency, "backlog suggestions stay medium")
	assert.Contains(t, saved[0].Message, "12")
}

func TestOverwhelmSuppressedByRecentRecovery(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(4)
	now := time.Now().UTC()

	events := testkit.OpenTaskBacklog(user, now.Add(-time.Hour), 12, 5)
	events = append(events, testkit.MeditationEvent(user, now.AddDate(0, 0, -1)))

	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user, Now: now, Events: events, Buckets: event.GroupByDay(events),
	})
	require.NoError(t, err)
	assert.Empty(t, saved, "a recovery activity in the last 3 days holds the suggestion back")
}

func TestOverwhelmNeedsTenOpenTasks(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(4)
	now := time.Now().UTC()

	// a small backlog stays quiet even when most of it is high priority
	events := testkit.OpenTaskBacklog(user, now.Add(-time.Hour), 8, 5)
	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user, Now: now, Events: events, Buckets: event.GroupByDay(events),
	})
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestPositivePatternInsight(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(5)
	now := time.Now().UTC()

	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user,
		Now:    now,
		Patterns: []pattern.Pattern{{
			ID:          core.PatternID(core.NewID()),
			UserID:      user,
			Type:        pattern.TypeCrossDimensional,
			Description: "Days with a workout event average 167% more completed tasks than days without",
			Confidence:  0.83,
			SampleSize:  20,
			LastSeenAt:  core.NewTimestamp(now),
			IsActive:    true,
		}},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	assert.Equal(t, intervention.TypeInsight, saved[0].Type)
	assert.Equal(t, intervention.UrgencyLow, saved[0].Urgency)
	assert.Contains(t, saved[0].Message, "167%")
}

func TestPositivePatternRequiresHighConfidence(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(5)
	now := time.Now().UTC()

	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user,
		Now:    now,
		Patterns: []pattern.Pattern{{
			ID:          core.PatternID(core.NewID()),
			UserID:      user,
			Type:        pattern.TypeCrossDimensional,
			Description: "meditation lifts completion",
			Confidence:  0.75,
			SampleSize:  20,
			LastSeenAt:  core.NewTimestamp(now),
			IsActive:    true,
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, saved, "a pattern at 0.75 confidence is not insight-worthy")
}

func TestPositivePatternAnyTypeQualifies(t *testing.T) {
	svc, _ := newInterventionFixture(nil)
	user := testkit.UserN(5)
	now := time.Now().UTC()

	saved, err := svc.Check(context.Background(), RuleInput{
		UserID: user,
		Now:    now,
		Patterns: []pattern.Pattern{{
			ID:          core.PatternID(core.NewID()),
			UserID:      user,
			Type:        pattern.TypeTemporal,
			Description: "Activity on Mondays runs well above the weekly norm",
			Confidence:  0.9,
			SampleSize:  30,
			LastSeenAt:  core.NewTimestamp(now),
			IsActive:    true,
		}},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, intervention.TypeInsight, saved[0].Type)
}

func TestArbitrationCapsAndOrders(t *testing.T) {
	repo := testkit.NewInterventionRepository()
	cfg := workflowConfig()
	cfg.InterventionCap = 2
	svc := NewInterventionService(repo, nil, cfg, 7)

	user := testkit.UserN(6)
	now := time.Now().UTC()

	// three rules fire: overtraining (high), overwhelm (medium), positive
	// pattern (low)
	// backlog logged yesterday so it does not break the trailing streak
	in := streakInput(user, 8)
	in.Events = append(in.Events, testkit.OpenTaskBacklog(user, now.AddDate(0, 0, -1), 12, 5)...)
	in.Buckets = event.GroupByDay(in.Events)
	in.Patterns = []pattern.Pattern{{
		ID: core.PatternID(core.NewID()), UserID: user,
		Type: pattern.TypeCrossDimensional, Description: "meditation lifts completion",
		Confidence: 0.85, SampleSize: 20, LastSeenAt: core.NewTimestamp(now), IsActive: true,
	}}

	saved, err := svc.Check(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, saved, 2, "cap must hold")

	assert.Equal(t, intervention.TypeWarning, saved[0].Type, "highest urgency first")
	for _, iv := range saved {
		assert.NotEqual(t, intervention.TypeInsight, iv.Type, "low-urgency insight must be arbitrated out")
	}
	for i := 1; i < len(saved); i++ {
		assert.GreaterOrEqual(t, saved[i-1].Urgency.Rank(), saved[i].Urgency.Rank())
	}
}

func TestDedupWindowSuppressesRepeats(t *testing.T) {
	svc, repo := newInterventionFixture(nil)
	user := testkit.UserN(7)

	first, err := svc.Check(context.Background(), streakInput(user, 7))
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Check(context.Background(), streakInput(user, 7))
	require.NoError(t, err)
	assert.Empty(t, second, "repeat within the window must be suppressed")
	assert.Len(t, repo.Stored(), 1)

	// acknowledging releases the hold
	require.NoError(t, repo.Acknowledge(context.Background(), first[0].ID, time.Now()))

	third, err := svc.Check(context.Background(), streakInput(user, 7))
	require.NoError(t, err)
	assert.Len(t, third, 1)
}

func TestTextGeneratorFailureKeepsTemplateMessage(t *testing.T) {
	svc, _ := newInterventionFixture(failingTextGen{})

	saved, err := svc.Check(context.Background(), streakInput(testkit.UserN(8), 7))
	require.NoError(t, err)
	require.Len(t, saved, 1)

	// the rule's own data-citing message survives
	assert.Contains(t, saved[0].Message, "7")
	assert.Contains(t, strings.ToLower(saved[0].Message), "rest")
}

func TestTextGeneratorRephrasesMessage(t *testing.T) {
	svc, _ := newInterventionFixture(cannedTextGen{text: "Seven hard days in a row. Time to take a rest day."})

	saved, err := svc.Check(context.Background(), streakInput(testkit.UserN(9), 7))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Seven hard days in a row. Time to take a rest day.", saved[0].Message)
}
