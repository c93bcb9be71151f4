package app

import (
	"context"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal"
	"github.com/Swapnil565/Jarvis/ports"
)

// recentInterventionLimit bounds the insights listing.
const recentInterventionLimit = 10

// InsightsService is the read side: patterns, forecasts, and intervention
// feedback, answered from the workflow cache where possible.
type InsightsService struct {
	patterns      ports.PatternRepository
	interventions ports.InterventionRepository
	forecaster    *ForecastService
	cache         *WorkflowCache
	log           *internal.Logger
}

// InsightsResult bundles what the insights query returns.
type InsightsResult struct {
	Patterns      []pattern.Pattern           `json:"patterns"`
	Interventions []intervention.Intervention `json:"interventions"`
}

// NewInsightsService creates the read-side service. cache may be nil; every
// query then goes to storage.
func NewInsightsService(patterns ports.PatternRepository, interventions ports.InterventionRepository, forecaster *ForecastService, cache *WorkflowCache) *InsightsService {
	return &InsightsService{
		patterns:      patterns,
		interventions: interventions,
		forecaster:    forecaster,
		cache:         cache,
		log:           internal.NewDefaultLogger("insights"),
	}
}

// GetInsights returns the user's active patterns (confidence descending) and
// most recent interventions.
func (s *InsightsService) GetInsights(ctx context.Context, userID core.UserID) (InsightsResult, error) {
	patterns, err := s.patterns.ActivePatterns(ctx, userID)
	if err != nil {
		return InsightsResult{}, err
	}
	ivs, err := s.interventions.ListRecent(ctx, userID, recentInterventionLimit)
	if err != nil {
		return InsightsResult{}, err
	}
	return InsightsResult{Patterns: patterns, Interventions: ivs}, nil
}

// GetForecast serves the cached forecast when one is fresh, regenerating
// otherwise.
func (s *InsightsService) GetForecast(ctx context.Context, userID core.UserID) (*forecast.Forecast, error) {
	if s.cache != nil {
		if entry, ok := s.cache.Get(userID); ok && entry.Forecast != nil {
			s.log.Debug("serving cached forecast for user %s", userID)
			return entry.Forecast, nil
		}
	}
	return s.forecaster.Generate(ctx, userID)
}

// MarkDelivered stamps an intervention as delivered.
func (s *InsightsService) MarkDelivered(ctx context.Context, id core.InterventionID) error {
	return s.interventions.MarkDelivered(ctx, id, time.Now().UTC())
}

// AcknowledgeIntervention records that the user saw the intervention, ending
// its deduplication hold.
func (s *InsightsService) AcknowledgeIntervention(ctx context.Context, id core.InterventionID) error {
	return s.interventions.Acknowledge(ctx, id, time.Now().UTC())
}

// RateIntervention records user feedback on an intervention.
func (s *InsightsService) RateIntervention(ctx context.Context, id core.InterventionID, rating int, wasHelpful bool) error {
	return s.interventions.Rate(ctx, id, rating, wasHelpful)
}
