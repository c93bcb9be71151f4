package app

import (
	"context"
	"math"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/internal"
	"github.com/Swapnil565/Jarvis/internal/analysis"
	"github.com/Swapnil565/Jarvis/internal/config"
	"github.com/Swapnil565/Jarvis/ports"
)

// ForecastService projects a user's capacity and demand over the configured
// horizon and scores burnout risk from recent load. Forecasts are rebuilt from
// scratch each run; callers keep only the latest.
type ForecastService struct {
	store ports.EventStore
	cfg   config.ForecastConfig
	retry RetryPolicy
	log   *internal.Logger
}

// NewForecastService creates the forecasting engine.
func NewForecastService(store ports.EventStore, cfg config.ForecastConfig, retry RetryPolicy) *ForecastService {
	return &ForecastService{
		store: store,
		cfg:   cfg,
		retry: retry,
		log:   internal.NewDefaultLogger("forecast"),
	}
}

// dailySeries is the per-observed-day score history feeding the strategies.
type dailySeries struct {
	days     []core.Day
	capacity []float64
	demand   []float64
}

// Generate builds a horizon-length forecast for the user. Zero event history
// is core.ErrInsufficientData; any non-empty history yields a full forecast
// because the smoothing strategy has no minimum-length precondition.
func (s *ForecastService) Generate(ctx context.Context, userID core.UserID) (*forecast.Forecast, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -s.cfg.LookbackDays)

	events, err := fetchEvents(ctx, s.store, userID, start, now.Add(time.Hour), s.retry)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, core.ErrInsufficientData
	}

	buckets := event.GroupByDay(events)
	series := buildDailySeries(buckets, s.cfg.Weights, s.cfg.Series)

	horizon := s.cfg.HorizonDays
	var capProj, demProj []float64
	var method string
	for _, strat := range s.strategyChain() {
		cp, err := strat.project(series.days, series.capacity, horizon)
		if err != nil {
			s.log.Debug("strategy %s not applicable for user %s: %v", strat.name, userID, err)
			continue
		}
		dp, err := strat.project(series.days, series.demand, horizon)
		if err != nil {
			continue
		}
		capProj, demProj, method = cp, dp, strat.name
		break
	}
	if method == "" {
		return nil, core.ErrStrategyFailed
	}

	points := make([]forecast.Point, horizon)
	for i := 0; i < horizon; i++ {
		date := now.AddDate(0, 0, i+1).Truncate(24 * time.Hour)
		points[i] = forecast.Point{
			Date:     date,
			Capacity: capProj[i],
			Demand:   demProj[i],
			Category: s.cfg.Bands.Categorize(capProj[i], demProj[i]),
		}
	}

	f := &forecast.Forecast{
		UserID:        userID,
		GeneratedAt:   core.NewTimestamp(now),
		Points:        points,
		BurnoutRisk:   s.burnoutRisk(buckets),
		MethodUsed:    method,
		Confidence:    forecastConfidence(method, len(events)),
		BasedOnEvents: len(events),
	}
	s.log.Info("forecast for user %s: method=%s burnout=%.1f events=%d", userID, method, f.BurnoutRisk, len(events))
	return f, nil
}

// PredictCrash classifies burnout risk and estimates when capacity crosses
// the crash threshold. A crossing inside the projected points reports an
// exact day count; a crossing implied only by the declining trend beyond the
// horizon is clamped at the horizon with WithinHorizon false. A flat or
// rising trend predicts no crash.
func (s *ForecastService) PredictCrash(f *forecast.Forecast) forecast.CrashPrediction {
	pred := forecast.CrashPrediction{
		RiskLevel:   s.cfg.CutPoints.Classify(f.BurnoutRisk),
		BurnoutRisk: f.BurnoutRisk,
	}

	caps := make([]float64, len(f.Points))
	for i, p := range f.Points {
		caps[i] = p.Capacity
		if !pred.CrashPredicted && p.Capacity <= s.cfg.CrashThreshold {
			pred.CrashPredicted = true
			pred.DaysUntilCrash = i + 1
			pred.WithinHorizon = true
		}
	}
	if pred.CrashPredicted || len(caps) == 0 {
		return pred
	}

	slope := analysis.Slope(caps)
	if slope >= 0 {
		return pred
	}
	last := caps[len(caps)-1]
	days := len(caps) + int(math.Ceil((last-s.cfg.CrashThreshold)/(-slope)))
	if days > s.cfg.HorizonDays {
		pred.CrashPredicted = true
		pred.DaysUntilCrash = s.cfg.HorizonDays
		pred.WithinHorizon = false
	}
	return pred
}

// burnoutRisk scores the weighted sum of CNS fatigue, work pressure, and
// recovery deficit, clamped to [0,100].
func (s *ForecastService) burnoutRisk(buckets []event.DayBucket) float64 {
	w := s.cfg.Weights

	hardFlags := make([]bool, len(buckets))
	daysSinceRecovery := len(buckets)
	openTasks, highPriorityOpen := 0, 0
	for i, b := range buckets {
		hardFlags[i] = b.Any(event.Event.IsHighIntensity) && !b.Any(event.Event.IsRest)
		if b.Any(event.Event.IsRecovery) {
			daysSinceRecovery = len(buckets) - 1 - i
		}
		openTasks += b.CountWhere(event.Event.IsOpenTask)
		highPriorityOpen += b.CountWhere(func(e event.Event) bool {
			return e.IsOpenTask() && e.IsHighPriority()
		})
	}

	cns := float64(analysis.TrailingRun(hardFlags)) * w.IntensityScale
	pressure := float64(openTasks) + float64(highPriorityOpen)*w.DeadlineMultiplier
	deficit := float64(daysSinceRecovery) * w.StressMultiplier

	risk := w.CNSFatigue*cns + w.WorkPressure*pressure + w.RecoveryDeficit*deficit
	return forecast.ClampScore(risk)
}

// buildDailySeries derives per-day capacity and demand scores from raw
// events. Capacity starts from a rested baseline, drops with physical load,
// and recovers with rest and recovery activities. Demand accumulates with
// open work, weighted up for high-priority items.
func buildDailySeries(buckets []event.DayBucket, w forecast.BurnoutWeights, sw forecast.SeriesWeights) dailySeries {
	series := dailySeries{
		days:     make([]core.Day, len(buckets)),
		capacity: make([]float64, len(buckets)),
		demand:   make([]float64, len(buckets)),
	}
	for i, b := range buckets {
		series.days[i] = b.Day

		physicalLoad := 0.0
		recoveries := 0.0
		for _, e := range b.Events {
			if e.Category == event.CategoryPhysical && !e.IsRest() {
				physicalLoad += e.IntensityScore()
			}
			if e.IsRecovery() {
				recoveries++
			}
		}
		series.capacity[i] = forecast.ClampScore(
			sw.CapacityBaseline - physicalLoad*w.IntensityScale + recoveries*sw.RecoveryCredit,
		)

		open := float64(b.CountWhere(event.Event.IsOpenTask))
		highPriority := float64(b.CountWhere(func(e event.Event) bool {
			return e.IsOpenTask() && e.IsHighPriority()
		}))
		completed := float64(b.CountWhere(event.Event.IsCompletedTask))
		series.demand[i] = forecast.ClampScore(
			open*sw.OpenTaskLoad + highPriority*sw.OpenTaskLoad*(w.DeadlineMultiplier-1) + completed*sw.CompletedLoad,
		)
	}
	return series
}

// forecastConfidence scores how much to trust a forecast from the method that
// produced it and the history size behind it.
func forecastConfidence(method string, basedOnEvents int) float64 {
	base := 0.45
	switch method {
	case "trend":
		base = 0.6
	case "seasonal":
		base = 0.55
	}
	c := base + float64(basedOnEvents)/200.0
	if c > 0.9 {
		c = 0.9
	}
	return c
}
