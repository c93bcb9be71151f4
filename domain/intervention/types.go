package intervention

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Swapnil565/Jarvis/domain/core"
)

// Type classifies what kind of alert an intervention is.
type Type string

const (
	TypeWarning    Type = "warning"
	TypeSuggestion Type = "suggestion"
	TypeInsight    Type = "insight"
	TypeForecast   Type = "forecast"
)

// Urgency is the ordinal priority used to arbitrate which alerts surface.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Rank returns the sort weight: critical > high > medium > low.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

// IsUrgent reports whether the urgency qualifies for the event-triggered
// fast path.
func (u Urgency) IsUrgent() bool {
	return u == UrgencyHigh || u == UrgencyCritical
}

// Intervention is a point-in-time actionable alert. Interventions accumulate;
// they are never deleted or deactivated.
type Intervention struct {
	ID             core.InterventionID    `json:"id"`
	UserID         core.UserID            `json:"user_id"`
	Type           Type                   `json:"intervention_type"`
	Urgency        Urgency                `json:"urgency"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	SupportingData map[string]interface{} `json:"supporting_data,omitempty"`
	CreatedAt      core.Timestamp         `json:"created_at"`
	DeliveredAt    *core.Timestamp        `json:"delivered_at,omitempty"`
	AcknowledgedAt *core.Timestamp        `json:"acknowledged_at,omitempty"`
	UserRating     *int                   `json:"user_rating,omitempty"`
	WasHelpful     *bool                  `json:"was_helpful,omitempty"`

	// EvidenceAt is the timestamp of the most recent supporting evidence,
	// used to break urgency ties during arbitration.
	EvidenceAt core.Timestamp `json:"evidence_at"`
}

// DedupKey identifies repeats within the deduplication window.
func (iv Intervention) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s", iv.UserID, iv.Type, iv.Title)
}

// Validate enforces invariants before persistence.
func (iv Intervention) Validate() error {
	if iv.UserID == "" {
		return core.NewValidationError("user_id", "must not be empty")
	}
	if iv.Urgency.Rank() == 0 {
		return core.ErrInvalidUrgency
	}
	if strings.TrimSpace(iv.Title) == "" {
		return core.NewValidationError("title", "must not be empty")
	}
	if iv.UserRating != nil && (*iv.UserRating < 1 || *iv.UserRating > 5) {
		return core.ErrInvalidRating
	}
	return nil
}

// Arbitrate orders candidates by urgency descending, ties broken by the most
// recent supporting evidence, and caps the result at max.
func Arbitrate(candidates []Intervention, max int) []Intervention {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Urgency.Rank() != candidates[j].Urgency.Rank() {
			return candidates[i].Urgency.Rank() > candidates[j].Urgency.Rank()
		}
		return candidates[i].EvidenceAt.After(candidates[j].EvidenceAt)
	})
	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}
