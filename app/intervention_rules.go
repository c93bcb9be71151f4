package app

import (
	"fmt"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal/analysis"
)

// Overwhelm triggers on the open-task backlog, but only when no recovery
// activity happened inside the recent window.
const (
	overwhelmOpenTasks    = 10
	overwhelmRecoveryDays = 3
)

// positivePatternConfidence is the floor a detected pattern must exceed
// before it is surfaced back as reinforcement.
const positivePatternConfidence = 0.8

// RuleInput is the read-only evidence an intervention rule evaluates. The
// orchestrator fills it from fresh analysis during periodic runs and from
// cached results on the event-triggered path.
type RuleInput struct {
	UserID   core.UserID
	Now      time.Time
	Events   []event.Event
	Buckets  []event.DayBucket
	Patterns []pattern.Pattern
	Forecast *forecast.Forecast
	Crash    *forecast.CrashPrediction
}

// interventionRule is one independently evaluable trigger. A nil intervention
// with nil error means the rule simply did not fire.
type interventionRule struct {
	name   string
	urgent bool // eligible for the event-triggered fast path
	eval   func(in RuleInput) (*intervention.Intervention, error)
}

func (s *InterventionService) rules() []interventionRule {
	return []interventionRule{
		{name: "overtraining", urgent: true, eval: s.ruleOvertraining},
		{name: "overwhelm", urgent: false, eval: s.ruleOverwhelm},
		{name: "crash_risk", urgent: true, eval: s.ruleCrashRisk},
		{name: "positive_pattern", urgent: false, eval: s.rulePositivePattern},
	}
}

// ruleOvertraining fires when the trailing run of high-intensity days without
// rest reaches the streak threshold.
func (s *InterventionService) ruleOvertraining(in RuleInput) (*intervention.Intervention, error) {
	if len(in.Buckets) == 0 {
		return nil, nil
	}

	byDay := make(map[core.Day]event.DayBucket, len(in.Buckets))
	for _, b := range in.Buckets {
		byDay[b.Day] = b
	}
	first := in.Buckets[0].Day.Time()
	last := in.Buckets[len(in.Buckets)-1].Day.Time()

	var flags []bool
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		b, ok := byDay[core.DayOf(d)]
		flags = append(flags, ok && b.Any(event.Event.IsHighIntensity) && !b.Any(event.Event.IsRest))
	}
	streak := analysis.TrailingRun(flags)
	if streak < s.streakThreshold {
		return nil, nil
	}

	restDays := 1 + (streak-s.streakThreshold)/3
	iv := s.newIntervention(in, intervention.TypeWarning, intervention.UrgencyHigh,
		"Overtraining risk detected",
		fmt.Sprintf("You have trained at high intensity for %d consecutive days without a rest day. Take at least %d rest day(s) before your next hard session to let your nervous system recover.", streak, restDays),
		map[string]interface{}{
			"streak_days":           streak,
			"recommended_rest_days": restDays,
		})
	return &iv, nil
}

// ruleOverwhelm fires on a large open-task backlog. A recovery activity in
// the last few days suppresses it: the user is already compensating.
func (s *InterventionService) ruleOverwhelm(in RuleInput) (*intervention.Intervention, error) {
	open, highPriority := 0, 0
	for _, e := range in.Events {
		if !e.IsOpenTask() {
			continue
		}
		open++
		if e.IsHighPriority() {
			highPriority++
		}
	}
	if open < overwhelmOpenTasks {
		return nil, nil
	}
	if recoveredWithin(in, overwhelmRecoveryDays) {
		return nil, nil
	}

	iv := s.newIntervention(in, intervention.TypeSuggestion, intervention.UrgencyMedium,
		"Task backlog is piling up",
		fmt.Sprintf("You have %d open tasks, %d of them high priority. Pick the three that matter most today and defer or drop the rest.", open, highPriority),
		map[string]interface{}{
			"open_tasks":    open,
			"high_priority": highPriority,
		})
	return &iv, nil
}

// recoveredWithin reports whether any recovery-type event happened in the
// last `days` days before in.Now.
func recoveredWithin(in RuleInput, days int) bool {
	cutoff := in.Now.AddDate(0, 0, -days)
	for _, e := range in.Events {
		if e.IsRecovery() && e.OccurredAt.Time().After(cutoff) {
			return true
		}
	}
	return false
}

// ruleCrashRisk fires from the forecast: critical when burnout exceeds the
// alert threshold and heavy days are projected, high when burnout alone
// crosses the threshold or a crash is projected inside the horizon.
func (s *InterventionService) ruleCrashRisk(in RuleInput) (*intervention.Intervention, error) {
	if in.Forecast == nil || in.Crash == nil {
		return nil, nil
	}
	f, crash := in.Forecast, in.Crash

	riskDays := f.RiskDaysAhead(4)
	var urgency intervention.Urgency
	switch {
	case crash.BurnoutRisk > s.cfg.BurnoutAlert && riskDays > 0:
		urgency = intervention.UrgencyCritical
	case crash.BurnoutRisk > s.cfg.BurnoutAlert,
		crash.CrashPredicted && crash.WithinHorizon:
		urgency = intervention.UrgencyHigh
	default:
		return nil, nil
	}

	msg := fmt.Sprintf("Your burnout risk is %.0f out of 100 and the next %d day(s) look overloaded. Cut scheduled intensity and protect recovery time now.", crash.BurnoutRisk, riskDays)
	if crash.CrashPredicted && crash.WithinHorizon {
		msg = fmt.Sprintf("Your burnout risk is %.0f out of 100 and your capacity is on track to crash in about %d day(s). Cut scheduled intensity and protect recovery time now.", crash.BurnoutRisk, crash.DaysUntilCrash)
	}

	data := map[string]interface{}{
		"burnout_risk":    crash.BurnoutRisk,
		"risk_level":      string(crash.RiskLevel),
		"risk_days_ahead": riskDays,
		"method_used":     f.MethodUsed,
	}
	if crash.CrashPredicted {
		data["days_until_crash"] = crash.DaysUntilCrash
		data["within_horizon"] = crash.WithinHorizon
	}

	iv := s.newIntervention(in, intervention.TypeForecast, urgency,
		"Energy crash ahead", msg, data)
	return &iv, nil
}

// rulePositivePattern surfaces the strongest high-confidence pattern of any
// type as reinforcement.
func (s *InterventionService) rulePositivePattern(in RuleInput) (*intervention.Intervention, error) {
	var best *pattern.Pattern
	for i := range in.Patterns {
		p := &in.Patterns[i]
		if !p.IsActive || p.Confidence <= positivePatternConfidence {
			continue
		}
		if best == nil || p.Confidence > best.Confidence {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}

	iv := s.newIntervention(in, intervention.TypeInsight, intervention.UrgencyLow,
		"Something is working for you",
		fmt.Sprintf("%s. Keep it in your routine; the effect is well supported across %d days.", best.Description, best.SampleSize),
		map[string]interface{}{
			"pattern_id":  best.ID.String(),
			"confidence":  best.Confidence,
			"sample_size": best.SampleSize,
		})
	iv.EvidenceAt = best.LastSeenAt
	return &iv, nil
}

func (s *InterventionService) newIntervention(in RuleInput, typ intervention.Type, urgency intervention.Urgency, title, message string, data map[string]interface{}) intervention.Intervention {
	now := core.NewTimestamp(in.Now)
	return intervention.Intervention{
		ID:             core.InterventionID(core.NewID()),
		UserID:         in.UserID,
		Type:           typ,
		Urgency:        urgency,
		Title:          title,
		Message:        message,
		SupportingData: data,
		CreatedAt:      now,
		EvidenceAt:     now,
	}
}
