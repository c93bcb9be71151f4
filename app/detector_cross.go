package app

import (
	"fmt"
	"math"

	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal/analysis"
)

// crossDriver is an activity whose presence on a day might lift an outcome
// measured on the same day.
type crossDriver struct {
	label   string
	present func(event.DayBucket) bool
}

// detectCrossDimensional compares completed-task volume between days that
// carry a driver activity and days that do not. A pattern is emitted when the
// driver group outperforms by more than the configured improvement ratio and
// the split covers enough days.
func (s *CorrelationService) detectCrossDimensional(in detectInput) ([]pattern.Pattern, error) {
	if len(in.buckets) < s.cfg.MinSampleSize {
		return nil, nil
	}

	drivers := []crossDriver{
		{label: "workout", present: func(b event.DayBucket) bool {
			return b.Any(event.Event.IsWorkout)
		}},
		{label: "meditation", present: func(b event.DayBucket) bool {
			return b.Any(func(e event.Event) bool {
				return e.Category == event.CategorySpiritual && e.EventType == "meditation"
			})
		}},
	}

	daily := make([]float64, len(in.buckets))
	for i, b := range in.buckets {
		daily[i] = float64(b.CountWhere(event.Event.IsCompletedTask))
	}

	var out []pattern.Pattern
	for _, d := range drivers {
		var withDays, withoutDays []float64
		for i, b := range in.buckets {
			if d.present(b) {
				withDays = append(withDays, daily[i])
			} else {
				withoutDays = append(withoutDays, daily[i])
			}
		}
		if len(withDays) == 0 || len(withoutDays) == 0 {
			continue
		}

		withMean := analysis.Mean(withDays)
		withoutMean := analysis.Mean(withoutDays)
		if withoutMean <= 0 {
			continue
		}
		improvement := (withMean - withoutMean) / withoutMean
		if improvement <= s.cfg.ImprovementRatio {
			continue
		}

		// Round the percentage so an unchanged history produces a
		// byte-identical description and the upsert merges.
		pct := int(math.Round(improvement * 100))
		description := fmt.Sprintf(
			"Days with a %s event average %d%% more completed tasks than days without",
			d.label, pct,
		)

		sampleDays := len(in.buckets)
		out = append(out, in.newPattern(pattern.TypeCrossDimensional, description, sampleDays, map[string]interface{}{
			"driver":          d.label,
			"with_mean":       withMean,
			"without_mean":    withoutMean,
			"improvement_pct": improvement * 100,
			"with_days":       len(withDays),
			"without_days":    len(withoutDays),
			"completed_trend": analysis.Slope(daily),
		}))
	}
	return out, nil
}
