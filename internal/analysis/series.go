// Package analysis holds the shared numeric helpers used by the correlation
// detectors and forecasting strategies. All functions are pure and tolerate
// short or empty series by returning zero values.
package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean returns the arithmetic mean, 0 for an empty series.
func Mean(series []float64) float64 {
	m, err := stats.Mean(series)
	if err != nil {
		return 0
	}
	return m
}

// StdDev returns the population standard deviation, 0 for short series.
func StdDev(series []float64) float64 {
	sd, err := stats.StandardDeviationPopulation(series)
	if err != nil {
		return 0
	}
	return sd
}

// ZScores standardizes a series against its own mean and population stddev.
// A zero-variance series yields all zeros.
func ZScores(series []float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	mean := Mean(series)
	sd := StdDev(series)
	zs := make([]float64, len(series))
	if sd == 0 {
		return zs
	}
	for i, v := range series {
		zs[i] = (v - mean) / sd
	}
	return zs
}

// Slope returns the least-squares slope of the series over its index,
// i.e. change per step. 0 for fewer than two points.
func Slope(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, series, nil, false)
	if math.IsNaN(slope) {
		return 0
	}
	return slope
}

// LinearProjection fits a least-squares line to the series and extends it by
// the given number of steps. Returns nil for an empty series.
func LinearProjection(series []float64, steps int) []float64 {
	if len(series) == 0 || steps <= 0 {
		return nil
	}
	if len(series) == 1 {
		out := make([]float64, steps)
		for i := range out {
			out[i] = series[0]
		}
		return out
	}
	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, series, nil, false)
	out := make([]float64, steps)
	for i := 0; i < steps; i++ {
		x := float64(len(series) + i)
		out[i] = intercept + slope*x
	}
	return out
}

// ExponentialSmoothing applies s_t = alpha*x_t + (1-alpha)*s_{t-1} with
// s_0 = x_0, returning the smoothed series.
func ExponentialSmoothing(series []float64, alpha float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	smoothed := make([]float64, len(series))
	smoothed[0] = series[0]
	for i := 1; i < len(series); i++ {
		smoothed[i] = alpha*series[i] + (1-alpha)*smoothed[i-1]
	}
	return smoothed
}

// MovingAverage returns the trailing window means, one per input position
// from index window-1 onward.
func MovingAverage(series []float64, window int) []float64 {
	if window <= 0 || len(series) < window {
		return nil
	}
	out := make([]float64, 0, len(series)-window+1)
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// LongestRun returns the length of the longest run of true flags.
func LongestRun(flags []bool) int {
	longest, current := 0, 0
	for _, f := range flags {
		if f {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// TrailingRun returns the length of the run of true flags ending at the
// final element.
func TrailingRun(flags []bool) int {
	n := 0
	for i := len(flags) - 1; i >= 0; i-- {
		if !flags[i] {
			break
		}
		n++
	}
	return n
}

// TwoSidedNormalP returns the two-sided p-value for a z statistic under the
// standard normal distribution.
func TwoSidedNormalP(z float64) float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * norm.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return p
}
