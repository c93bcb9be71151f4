package app

import (
	"math"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/internal/analysis"
)

// forecastStrategy projects a daily 0-100 score series `horizon` steps past
// its end. Strategies report core.ErrStrategyFailed when their preconditions
// are not met so the chain can fall through to the next one.
type forecastStrategy struct {
	name    string
	project func(days []core.Day, values []float64, horizon int) ([]float64, error)
}

// strategyChain returns the ordered fallback chain. Exponential smoothing has
// no precondition beyond a single observation, so the chain always terminates
// with a usable projection.
func (s *ForecastService) strategyChain() []forecastStrategy {
	return []forecastStrategy{
		{name: "trend", project: s.projectTrend},
		{name: "seasonal", project: s.projectSeasonal},
		{name: "exponential_smoothing", project: s.projectSmoothing},
	}
}

// projectTrend extends a least-squares line fitted to the whole series.
func (s *ForecastService) projectTrend(days []core.Day, values []float64, horizon int) ([]float64, error) {
	if len(values) < s.cfg.TrendMinPoints {
		return nil, core.ErrStrategyFailed
	}
	out := analysis.LinearProjection(values, horizon)
	return clampAll(out), nil
}

// projectSeasonal repeats the per-weekday historical mean. Weekdays never
// observed fall back to the overall mean.
func (s *ForecastService) projectSeasonal(days []core.Day, values []float64, horizon int) ([]float64, error) {
	if len(values) < s.cfg.SeasonalMin || len(days) != len(values) {
		return nil, core.ErrStrategyFailed
	}

	byWeekday := make(map[time.Weekday][]float64)
	for i, d := range days {
		wd := d.Weekday()
		byWeekday[wd] = append(byWeekday[wd], values[i])
	}
	overall := analysis.Mean(values)

	last := days[len(days)-1].Time()
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		wd := last.AddDate(0, 0, i+1).Weekday()
		if obs := byWeekday[wd]; len(obs) > 0 {
			out[i] = analysis.Mean(obs)
		} else {
			out[i] = overall
		}
	}
	return clampAll(out), nil
}

// projectSmoothing holds the exponentially smoothed level flat across the
// horizon. Works for any non-empty series.
func (s *ForecastService) projectSmoothing(days []core.Day, values []float64, horizon int) ([]float64, error) {
	if len(values) == 0 {
		return nil, core.ErrStrategyFailed
	}
	smoothed := analysis.ExponentialSmoothing(values, s.cfg.Alpha)
	level := smoothed[len(smoothed)-1]
	out := make([]float64, horizon)
	for i := range out {
		out[i] = level
	}
	return clampAll(out), nil
}

func clampAll(values []float64) []float64 {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		values[i] = forecast.ClampScore(v)
	}
	return values
}
