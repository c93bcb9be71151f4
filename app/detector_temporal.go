package app

import (
	"fmt"
	"math"
	"time"

	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal/analysis"
)

// detectTemporal looks for a weekday whose average activity volume deviates
// from the weekly norm by at least the configured sigma. Only the strongest
// deviation is reported; a second-place weekday is noise until the first is
// resolved.
func (s *CorrelationService) detectTemporal(in detectInput) ([]pattern.Pattern, error) {
	if len(in.buckets) < s.cfg.MinSampleSize {
		return nil, nil
	}

	countsByWeekday := make(map[time.Weekday][]float64)
	var daily []float64
	for _, b := range in.buckets {
		n := float64(len(b.Events))
		countsByWeekday[b.Day.Weekday()] = append(countsByWeekday[b.Day.Weekday()], n)
		daily = append(daily, n)
	}

	// Each weekday needs at least two observed days before its mean is
	// worth comparing.
	var weekdays []time.Weekday
	var means []float64
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		counts := countsByWeekday[wd]
		if len(counts) < 2 {
			continue
		}
		weekdays = append(weekdays, wd)
		means = append(means, analysis.Mean(counts))
	}
	if len(means) < 3 {
		return nil, nil
	}

	zs := analysis.ZScores(means)
	best := -1
	for i, z := range zs {
		if math.Abs(z) < s.cfg.AnomalySigma {
			continue
		}
		if best < 0 || math.Abs(z) > math.Abs(zs[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, nil
	}

	direction := "above"
	if zs[best] < 0 {
		direction = "below"
	}
	description := fmt.Sprintf(
		"Activity on %ss runs well %s the weekly norm", weekdays[best], direction,
	)
	p := in.newPattern(pattern.TypeTemporal, description, len(in.buckets), map[string]interface{}{
		"weekday":      weekdays[best].String(),
		"z_score":      zs[best],
		"p_value":      analysis.TwoSidedNormalP(zs[best]),
		"weekday_mean": means[best],
		"overall_mean": analysis.Mean(daily),
		"volume_trend": analysis.Slope(daily),
	})
	return []pattern.Pattern{p}, nil
}
