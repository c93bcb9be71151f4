package pattern

import (
	"fmt"
	"sort"

	"github.com/Swapnil565/Jarvis/domain/core"
)

// Type classifies how a pattern was detected.
type Type string

const (
	TypeCrossDimensional Type = "cross_dimensional"
	TypeWithinDimension  Type = "within_dimension"
	TypeTemporal         Type = "temporal"
)

// Detection thresholds. MinSampleSize is the minimum-evidence gate: no
// pattern may be created from fewer supporting samples. MinConfidence is the
// discard floor applied after scoring.
const (
	MinSampleSize = 14
	MinConfidence = 0.6

	// Confidence bounds produced by ConfidenceForSample.
	ConfidenceFloor   = 0.5
	ConfidenceCeiling = 0.95
)

// ConfidenceForSample scores evidence strength purely from sample size:
// min(0.95, 0.5 + n/60). Applies uniformly to all detectors.
func ConfidenceForSample(sampleSize int) float64 {
	c := ConfidenceFloor + float64(sampleSize)/60.0
	if c > ConfidenceCeiling {
		c = ConfidenceCeiling
	}
	return c
}

// Pattern is a detected regularity in a user's event history.
type Pattern struct {
	ID              core.PatternID         `json:"id"`
	UserID          core.UserID            `json:"user_id"`
	Type            Type                   `json:"pattern_type"`
	Description     string                 `json:"description"`
	Confidence      float64                `json:"confidence"`
	SampleSize      int                    `json:"sample_size"`
	Evidence        map[string]interface{} `json:"evidence,omitempty"`
	FirstDetectedAt core.Timestamp         `json:"first_detected_at"`
	LastSeenAt      core.Timestamp         `json:"last_seen_at"`
	Frequency       int                    `json:"frequency"`
	IsActive        bool                   `json:"is_active"`
}

// IdentityKey is the logical upsert key: re-detections of the same pattern
// for the same user merge rather than duplicate.
func (p Pattern) IdentityKey() string {
	return fmt.Sprintf("%s|%s|%s", p.UserID, p.Type, p.Description)
}

// Validate enforces the pattern invariants before persistence.
func (p Pattern) Validate() error {
	if p.UserID == "" {
		return core.NewValidationError("user_id", "must not be empty")
	}
	if p.Confidence < ConfidenceFloor || p.Confidence > ConfidenceCeiling {
		return core.ErrConfidenceBounds
	}
	if p.SampleSize < MinSampleSize {
		return core.ErrSampleTooSmall
	}
	return nil
}

// Merge folds a re-detection into an existing pattern: frequency increments,
// confidence is re-averaged weighted by prior vs. new sample size, and the
// sample size reflects the latest scan's support.
func Merge(existing, latest Pattern) Pattern {
	merged := existing
	totalN := existing.SampleSize + latest.SampleSize
	if totalN > 0 {
		c := (existing.Confidence*float64(existing.SampleSize) +
			latest.Confidence*float64(latest.SampleSize)) / float64(totalN)
		if c < ConfidenceFloor {
			c = ConfidenceFloor
		}
		if c > ConfidenceCeiling {
			c = ConfidenceCeiling
		}
		merged.Confidence = c
	}
	merged.SampleSize = latest.SampleSize
	merged.Evidence = latest.Evidence
	merged.LastSeenAt = latest.LastSeenAt
	merged.Frequency = existing.Frequency + 1
	merged.IsActive = true
	return merged
}

// SortCandidates orders detection output: confidence descending, ties broken
// by sample size descending.
func SortCandidates(patterns []Pattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Confidence != patterns[j].Confidence {
			return patterns[i].Confidence > patterns[j].Confidence
		}
		return patterns[i].SampleSize > patterns[j].SampleSize
	})
}
