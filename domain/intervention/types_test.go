package intervention

import (
	"testing"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
)

func TestArbitrateOrdersAndCaps(t *testing.T) {
	now := time.Now()
	older := core.NewTimestamp(now.Add(-time.Hour))
	newer := core.NewTimestamp(now)

	candidates := []Intervention{
		{Title: "low", Urgency: UrgencyLow, EvidenceAt: newer},
		{Title: "critical", Urgency: UrgencyCritical, EvidenceAt: older},
		{Title: "high-old", Urgency: UrgencyHigh, EvidenceAt: older},
		{Title: "high-new", Urgency: UrgencyHigh, EvidenceAt: newer},
		{Title: "medium", Urgency: UrgencyMedium, EvidenceAt: newer},
	}

	got := Arbitrate(candidates, 3)
	if len(got) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(got))
	}
	if got[0].Title != "critical" {
		t.Errorf("critical must rank first, got %s", got[0].Title)
	}
	if got[1].Title != "high-new" || got[2].Title != "high-old" {
		t.Errorf("urgency ties must break on newer evidence: %s, %s", got[1].Title, got[2].Title)
	}
}

func TestDedupKeyIgnoresMessage(t *testing.T) {
	a := Intervention{UserID: "u", Type: TypeWarning, Title: "t", Message: "one"}
	b := Intervention{UserID: "u", Type: TypeWarning, Title: "t", Message: "two"}
	if a.DedupKey() != b.DedupKey() {
		t.Error("dedup key must ignore the message body")
	}
	c := Intervention{UserID: "u", Type: TypeSuggestion, Title: "t"}
	if a.DedupKey() == c.DedupKey() {
		t.Error("dedup key must separate intervention types")
	}
}

func TestValidateRejectsBadRating(t *testing.T) {
	rating := 6
	iv := Intervention{UserID: "u", Urgency: UrgencyLow, Title: "t", UserRating: &rating}
	if err := iv.Validate(); err != core.ErrInvalidRating {
		t.Errorf("expected rating error, got %v", err)
	}
}

func TestUrgencyRankAndFastPath(t *testing.T) {
	if UrgencyCritical.Rank() <= UrgencyHigh.Rank() {
		t.Error("critical must outrank high")
	}
	if !UrgencyCritical.IsUrgent() || !UrgencyHigh.IsUrgent() {
		t.Error("high and critical are fast-path eligible")
	}
	if UrgencyMedium.IsUrgent() || UrgencyLow.IsUrgent() {
		t.Error("medium and low are not fast-path eligible")
	}
}
