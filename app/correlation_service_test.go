package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal/config"
	apperrors "github.com/Swapnil565/Jarvis/internal/errors"
	"github.com/Swapnil565/Jarvis/internal/testkit"
)

func analyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		LookbackDays:     90,
		MinSampleSize:    14,
		ImprovementRatio: 0.30,
		StreakThreshold:  7,
		AnomalySigma:     2.0,
		StaleAfter:       30 * 24 * time.Hour,
	}
}

func newCorrelationFixture() (*CorrelationService, *testkit.InMemoryEventStore, *testkit.InMemoryPatternRepository) {
	store := testkit.NewEventStore()
	repo := testkit.NewPatternRepository()
	svc := NewCorrelationService(store, repo, analyticsConfig(), DefaultRetryPolicy)
	return svc, store, repo
}

func TestDetectWorkoutTaskCorrelation(t *testing.T) {
	svc, store, _ := newCorrelationFixture()
	user := testkit.UserN(1)

	// 10 workout days averaging 8 completed tasks against 10 plain days
	// averaging 3.
	start := time.Now().UTC().AddDate(0, 0, -25).Truncate(24 * time.Hour)
	store.Add(testkit.WorkoutTaskHistory(user, start, 10, 10, 8, 3)...)

	patterns, err := svc.Detect(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, patterns)

	var found *pattern.Pattern
	for i := range patterns {
		if patterns[i].Type == pattern.TypeCrossDimensional && patterns[i].Evidence["driver"] == "workout" {
			found = &patterns[i]
		}
	}
	require.NotNil(t, found, "expected a workout/task cross-dimensional pattern")

	assert.GreaterOrEqual(t, found.Confidence, 0.6)
	assert.LessOrEqual(t, found.Confidence, 0.95)
	assert.Equal(t, 20, found.SampleSize)
	assert.Equal(t, user, found.UserID)
	assert.True(t, found.IsActive)
	assert.Equal(t, 1, found.Frequency)
}

func TestDetectIsIdempotentOnUnchangedHistory(t *testing.T) {
	svc, store, repo := newCorrelationFixture()
	user := testkit.UserN(2)

	start := time.Now().UTC().AddDate(0, 0, -25).Truncate(24 * time.Hour)
	store.Add(testkit.WorkoutTaskHistory(user, start, 10, 10, 8, 3)...)

	first, err := svc.Detect(context.Background(), user)
	require.NoError(t, err)
	rows := repo.Count()

	second, err := svc.Detect(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, rows, repo.Count(), "re-detection must merge, not duplicate")
	require.Equal(t, len(first), len(second))
	for _, p := range second {
		assert.Equal(t, 2, p.Frequency)
		assert.GreaterOrEqual(t, p.Confidence, pattern.ConfidenceFloor)
		assert.LessOrEqual(t, p.Confidence, pattern.ConfidenceCeiling)
	}
}

func TestDetectOvertrainingStreak(t *testing.T) {
	svc, store, _ := newCorrelationFixture()
	user := testkit.UserN(3)
	now := time.Now().UTC()

	// background activity so the evidence gate is met, then a 7-day
	// high-intensity run with no rest
	start := now.AddDate(0, 0, -25).Truncate(24 * time.Hour)
	store.Add(testkit.WorkoutTaskHistory(user, start, 0, 10, 0, 2)...)
	store.Add(testkit.HighIntensityStreak(user, now, 7)...)

	patterns, err := svc.Detect(context.Background(), user)
	require.NoError(t, err)

	var found *pattern.Pattern
	for i := range patterns {
		if patterns[i].Type == pattern.TypeWithinDimension {
			found = &patterns[i]
		}
	}
	require.NotNil(t, found, "expected an overtraining pattern")
	assert.Contains(t, found.Description, "7 consecutive")
	assert.Equal(t, 7, found.Evidence["streak_days"])
}

func TestDetectReturnsNothingOnEmptyHistory(t *testing.T) {
	svc, _, repo := newCorrelationFixture()

	patterns, err := svc.Detect(context.Background(), testkit.UserN(4))
	require.NoError(t, err)
	assert.Empty(t, patterns)
	assert.Zero(t, repo.Upserts)
}

func TestDetectSkipsSparseHistory(t *testing.T) {
	svc, store, repo := newCorrelationFixture()
	user := testkit.UserN(5)

	// 5 days is under the minimum-evidence gate
	start := time.Now().UTC().AddDate(0, 0, -6).Truncate(24 * time.Hour)
	store.Add(testkit.WorkoutTaskHistory(user, start, 3, 2, 8, 3)...)

	patterns, err := svc.Detect(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, patterns)
	assert.Zero(t, repo.Upserts)
}

func TestDetectOrdersByConfidenceThenSample(t *testing.T) {
	svc, store, _ := newCorrelationFixture()
	user := testkit.UserN(6)
	now := time.Now().UTC()

	start := now.AddDate(0, 0, -25).Truncate(24 * time.Hour)
	store.Add(testkit.WorkoutTaskHistory(user, start, 10, 10, 8, 3)...)
	store.Add(testkit.HighIntensityStreak(user, now, 7)...)

	patterns, err := svc.Detect(context.Background(), user)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(patterns), 2)

	for i := 1; i < len(patterns); i++ {
		prev, cur := patterns[i-1], patterns[i]
		ordered := prev.Confidence > cur.Confidence ||
			(prev.Confidence == cur.Confidence && prev.SampleSize >= cur.SampleSize)
		assert.True(t, ordered, "patterns out of order at %d", i)
	}
}

func TestDetectSurfacesStoreFailure(t *testing.T) {
	svc, store, _ := newCorrelationFixture()
	store.Err = errors.New("connection refused")

	_, err := svc.Detect(context.Background(), testkit.UserN(7))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
}

func TestDetectContinuesWhenUpsertFails(t *testing.T) {
	svc, store, repo := newCorrelationFixture()
	user := testkit.UserN(8)
	repo.FailWith = errors.New("deadlock detected")

	start := time.Now().UTC().AddDate(0, 0, -25).Truncate(24 * time.Hour)
	store.Add(testkit.WorkoutTaskHistory(user, start, 10, 10, 8, 3)...)

	patterns, err := svc.Detect(context.Background(), user)
	require.NoError(t, err, "repository failure must not abort the scan")
	assert.Empty(t, patterns)
}
