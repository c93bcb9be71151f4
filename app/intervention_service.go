package app

import (
	"context"
	"fmt"

	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/internal"
	"github.com/Swapnil565/Jarvis/internal/config"
	"github.com/Swapnil565/Jarvis/ports"
)

// InterventionService evaluates trigger rules against analysis output and
// persists the alerts that survive arbitration and deduplication. Messages
// are rephrased through the text generator when one is configured; the rule's
// own data-citing message is the fallback.
type InterventionService struct {
	repo    ports.InterventionRepository
	textgen ports.TextGenerator
	cfg     config.WorkflowConfig

	streakThreshold int
	log             *internal.Logger
}

// NewInterventionService creates the rule engine. textgen may be nil.
func NewInterventionService(repo ports.InterventionRepository, textgen ports.TextGenerator, cfg config.WorkflowConfig, streakThreshold int) *InterventionService {
	return &InterventionService{
		repo:            repo,
		textgen:         textgen,
		cfg:             cfg,
		streakThreshold: streakThreshold,
		log:             internal.NewDefaultLogger("intervention"),
	}
}

// Check runs every rule and returns the persisted interventions, urgency
// descending, capped at the configured maximum. A failing rule is logged and
// skipped; it never blocks the others.
func (s *InterventionService) Check(ctx context.Context, in RuleInput) ([]intervention.Intervention, error) {
	return s.run(ctx, in, false)
}

// CheckUrgent runs only the rules eligible for the event-triggered fast path
// (overtraining and crash risk).
func (s *InterventionService) CheckUrgent(ctx context.Context, in RuleInput) ([]intervention.Intervention, error) {
	return s.run(ctx, in, true)
}

func (s *InterventionService) run(ctx context.Context, in RuleInput, urgentOnly bool) ([]intervention.Intervention, error) {
	var candidates []intervention.Intervention
	for _, rule := range s.rules() {
		if urgentOnly && !rule.urgent {
			continue
		}
		iv, err := s.evalRule(rule, in)
		if err != nil {
			s.log.Warn("rule %s failed for user %s: %v", rule.name, in.UserID, err)
			continue
		}
		if iv == nil {
			continue
		}
		iv.SupportingData["rule"] = rule.name
		candidates = append(candidates, *iv)
	}

	candidates = intervention.Arbitrate(candidates, s.cfg.InterventionCap)

	cutoff := in.Now.Add(-s.cfg.DedupWindow)
	saved := make([]intervention.Intervention, 0, len(candidates))
	for _, iv := range candidates {
		dup, err := s.repo.HasRecentUnacknowledged(ctx, iv.UserID, iv.Type, iv.Title, cutoff)
		if err != nil {
			s.log.Warn("dedup check failed for %q: %v", iv.Title, err)
			continue
		}
		if dup {
			s.log.Debug("suppressing duplicate intervention %q for user %s", iv.Title, iv.UserID)
			continue
		}

		iv.Message = s.phrase(ctx, iv)
		id, err := s.repo.SaveIntervention(ctx, iv)
		if err != nil {
			s.log.Warn("failed to save intervention %q: %v", iv.Title, err)
			continue
		}
		iv.ID = id
		saved = append(saved, iv)
	}
	return saved, nil
}

// evalRule isolates a rule, converting panics into rule-level errors.
func (s *InterventionService) evalRule(rule interventionRule, in RuleInput) (iv *intervention.Intervention, err error) {
	defer func() {
		if r := recover(); r != nil {
			iv = nil
			err = fmt.Errorf("rule %s panicked: %v", rule.name, r)
		}
	}()
	return rule.eval(in)
}

// phrase asks the text generator for a friendlier message, keeping the rule's
// deterministic message when generation is unavailable or fails.
func (s *InterventionService) phrase(ctx context.Context, iv intervention.Intervention) string {
	if s.textgen == nil {
		return iv.Message
	}
	msg, err := s.textgen.Summarize(ctx, ports.SummaryContext{
		Kind:        string(iv.Type),
		Title:       iv.Title,
		Description: iv.Message,
		Data:        iv.SupportingData,
	})
	if err != nil || msg == "" {
		s.log.Debug("text generation fell back to template for %q: %v", iv.Title, err)
		return iv.Message
	}
	return msg
}
