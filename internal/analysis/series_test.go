package analysis

import (
	"math"
	"testing"
)

func TestExponentialSmoothingAnchorsOnFirstValue(t *testing.T) {
	series := []float64{10, 20, 30}
	smoothed := ExponentialSmoothing(series, 0.3)

	if len(smoothed) != 3 {
		t.Fatalf("expected 3 values, got %d", len(smoothed))
	}
	if smoothed[0] != 10 {
		t.Errorf("s_0 must equal x_0, got %f", smoothed[0])
	}
	// s_1 = 0.3*20 + 0.7*10 = 13
	if math.Abs(smoothed[1]-13) > 1e-9 {
		t.Errorf("expected s_1 = 13, got %f", smoothed[1])
	}
}

func TestSlopeSignTracksDirection(t *testing.T) {
	if s := Slope([]float64{1, 2, 3, 4}); s <= 0 {
		t.Errorf("rising series must have positive slope, got %f", s)
	}
	if s := Slope([]float64{9, 7, 5, 3}); s >= 0 {
		t.Errorf("falling series must have negative slope, got %f", s)
	}
	if s := Slope([]float64{5}); s != 0 {
		t.Errorf("single point has no slope, got %f", s)
	}
}

func TestLinearProjectionExtendsTheLine(t *testing.T) {
	out := LinearProjection([]float64{0, 1, 2, 3}, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 projected values, got %d", len(out))
	}
	if math.Abs(out[0]-4) > 1e-9 || math.Abs(out[1]-5) > 1e-9 {
		t.Errorf("expected [4 5], got %v", out)
	}
}

func TestZScoresZeroVariance(t *testing.T) {
	zs := ZScores([]float64{5, 5, 5})
	for _, z := range zs {
		if z != 0 {
			t.Errorf("flat series must yield zero z-scores, got %v", zs)
		}
	}
}

func TestRuns(t *testing.T) {
	flags := []bool{true, true, false, true, true, true}
	if got := LongestRun(flags); got != 3 {
		t.Errorf("expected longest run 3, got %d", got)
	}
	if got := TrailingRun(flags); got != 3 {
		t.Errorf("expected trailing run 3, got %d", got)
	}
	if got := TrailingRun([]bool{true, false}); got != 0 {
		t.Errorf("expected trailing run 0, got %d", got)
	}
}

func TestTwoSidedNormalP(t *testing.T) {
	if p := TwoSidedNormalP(0); math.Abs(p-1) > 1e-9 {
		t.Errorf("z=0 should give p=1, got %f", p)
	}
	if p := TwoSidedNormalP(1.96); math.Abs(p-0.05) > 0.001 {
		t.Errorf("z=1.96 should give p~0.05, got %f", p)
	}
	if p := TwoSidedNormalP(-1.96); math.Abs(p-0.05) > 0.001 {
		t.Errorf("two-sided p must be symmetric, got %f", p)
	}
}
