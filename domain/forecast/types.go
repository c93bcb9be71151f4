package forecast

import (
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
)

// DefaultHorizonDays is the standard projection length.
const DefaultHorizonDays = 7

// Point is one projected day. Capacity and demand are 0-100 scores; Category
// is the derived 1-5 risk bucket.
type Point struct {
	Date     time.Time `json:"date"`
	Capacity float64   `json:"capacity"`
	Demand   float64   `json:"demand"`
	Category int       `json:"category"`
}

// Forecast is a full projection run. Rebuilt from scratch each run; the
// latest one replaces the prior for status queries.
type Forecast struct {
	UserID        core.UserID    `json:"user_id"`
	GeneratedAt   core.Timestamp `json:"generated_at"`
	Points        []Point        `json:"points"`
	BurnoutRisk   float64        `json:"burnout_risk"`
	MethodUsed    string         `json:"method_used"`
	Confidence    float64        `json:"confidence"`
	BasedOnEvents int            `json:"based_on_events"`
}

// RiskDaysAhead returns how many forecast days fall at or above the given
// category within the horizon.
func (f *Forecast) RiskDaysAhead(minCategory int) int {
	n := 0
	for _, p := range f.Points {
		if p.Category >= minCategory {
			n++
		}
	}
	return n
}

// FirstRiskDate returns the earliest forecast date at or above the category,
// or the zero time if none.
func (f *Forecast) FirstRiskDate(minCategory int) time.Time {
	for _, p := range f.Points {
		if p.Category >= minCategory {
			return p.Date
		}
	}
	return time.Time{}
}

// CategoryBands is the configuration surface mapping capacity/demand scores
// onto the 1-5 risk bucket. Values are score thresholds on the 0-100 scale.
type CategoryBands struct {
	HighCapacity float64 `json:"high_capacity"`
	LowCapacity  float64 `json:"low_capacity"`
	HighDemand   float64 `json:"high_demand"`
	LowDemand    float64 `json:"low_demand"`
}

// DefaultCategoryBands are illustrative defaults, overridable via config.
func DefaultCategoryBands() CategoryBands {
	return CategoryBands{
		HighCapacity: 70,
		LowCapacity:  40,
		HighDemand:   70,
		LowDemand:    40,
	}
}

// Categorize buckets a capacity/demand pair: 1 is low demand with high
// capacity, 5 is overload (high demand against low capacity).
func (b CategoryBands) Categorize(capacity, demand float64) int {
	switch {
	case demand >= b.HighDemand && capacity <= b.LowCapacity:
		return 5
	case demand >= b.HighDemand || capacity <= b.LowCapacity:
		return 4
	case demand <= b.LowDemand && capacity >= b.HighCapacity:
		return 1
	case demand > capacity:
		return 3
	default:
		return 2
	}
}

// BurnoutWeights is the configuration surface for the burnout-risk formula.
// Each term is non-negative; the weighted sum is clamped to [0,100].
type BurnoutWeights struct {
	CNSFatigue      float64 `json:"cns_fatigue"`      // weight on consecutive high-intensity load
	WorkPressure    float64 `json:"work_pressure"`    // weight on open-task pressure
	RecoveryDeficit float64 `json:"recovery_deficit"` // weight on days without recovery

	IntensityScale     float64 `json:"intensity_scale"`     // per-day intensity score multiplier
	DeadlineMultiplier float64 `json:"deadline_multiplier"` // extra pressure per high-priority task
	StressMultiplier   float64 `json:"stress_multiplier"`   // recovery-deficit scaling
}

// DefaultBurnoutWeights are illustrative defaults, overridable via config.
func DefaultBurnoutWeights() BurnoutWeights {
	return BurnoutWeights{
		CNSFatigue:      1.0,
		WorkPressure:    1.0,
		RecoveryDeficit: 1.0,

		IntensityScale:     4.0,
		DeadlineMultiplier: 1.5,
		StressMultiplier:   3.0,
	}
}

// SeriesWeights is the configuration surface for deriving the daily
// capacity/demand series from raw events.
type SeriesWeights struct {
	CapacityBaseline float64 `json:"capacity_baseline"` // rested-day starting capacity
	RecoveryCredit   float64 `json:"recovery_credit"`   // capacity regained per recovery activity
	OpenTaskLoad     float64 `json:"open_task_load"`    // demand added per open task
	CompletedLoad    float64 `json:"completed_load"`    // demand added per completed task
}

// DefaultSeriesWeights are illustrative defaults, overridable via config.
func DefaultSeriesWeights() SeriesWeights {
	return SeriesWeights{
		CapacityBaseline: 70,
		RecoveryCredit:   10,
		OpenTaskLoad:     8,
		CompletedLoad:    4,
	}
}

// RiskLevel classifies a burnout-risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// CrashCutPoints are the fixed classification boundaries on burnout risk.
type CrashCutPoints struct {
	Low  float64 `json:"low"`  // below this: low risk
	High float64 `json:"high"` // above this: high risk
}

// DefaultCrashCutPoints match the documented <30 / 30-60 / >60 bands.
func DefaultCrashCutPoints() CrashCutPoints {
	return CrashCutPoints{Low: 30, High: 60}
}

// Classify maps a burnout-risk score onto a risk level.
func (c CrashCutPoints) Classify(burnoutRisk float64) RiskLevel {
	switch {
	case burnoutRisk < c.Low:
		return RiskLow
	case burnoutRisk > c.High:
		return RiskHigh
	default:
		return RiskModerate
	}
}

// CrashPrediction estimates whether and when energy crosses the crash
// threshold. When the trend does not decline toward the threshold,
// CrashPredicted is false rather than reporting a negative day count.
// Crossings beyond the forecast horizon report WithinHorizon=false with
// DaysUntilCrash clamped at the horizon.
type CrashPrediction struct {
	RiskLevel      RiskLevel `json:"risk_level"`
	BurnoutRisk    float64   `json:"burnout_risk"`
	CrashPredicted bool      `json:"crash_predicted"`
	DaysUntilCrash int       `json:"days_until_crash,omitempty"`
	WithinHorizon  bool      `json:"within_horizon"`
}

// ClampScore bounds a capacity/demand/risk score to [0,100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
