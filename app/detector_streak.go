package app

import (
	"fmt"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal/analysis"
)

// detectWithinDimension looks for sustained overtraining inside the physical
// dimension: consecutive calendar days with a high-intensity session and no
// rest logged. Days with no events at all break the streak.
func (s *CorrelationService) detectWithinDimension(in detectInput) ([]pattern.Pattern, error) {
	if len(in.events) < s.cfg.MinSampleSize || len(in.buckets) == 0 {
		return nil, nil
	}

	byDay := make(map[core.Day]event.DayBucket, len(in.buckets))
	for _, b := range in.buckets {
		byDay[b.Day] = b
	}

	first := in.buckets[0].Day.Time()
	last := in.buckets[len(in.buckets)-1].Day.Time()

	var flags []bool
	var dailyLoad []float64
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		b, ok := byDay[core.DayOf(d)]
		if !ok {
			flags = append(flags, false)
			dailyLoad = append(dailyLoad, 0)
			continue
		}
		hard := b.Any(event.Event.IsHighIntensity) && !b.Any(event.Event.IsRest)
		flags = append(flags, hard)

		load := 0.0
		for _, e := range b.Events {
			if e.Category == event.CategoryPhysical {
				load += e.IntensityScore()
			}
		}
		dailyLoad = append(dailyLoad, load)
	}

	streak := analysis.LongestRun(flags)
	if streak < s.cfg.StreakThreshold {
		return nil, nil
	}

	description := fmt.Sprintf(
		"Overtraining signal: %d consecutive high-intensity days without rest", streak,
	)
	p := in.newPattern(pattern.TypeWithinDimension, description, len(in.events), map[string]interface{}{
		"streak_days":     streak,
		"trailing_streak": analysis.TrailingRun(flags),
		"load_trend":      analysis.Slope(dailyLoad),
		"days_scanned":    len(flags),
	})
	return []pattern.Pattern{p}, nil
}
