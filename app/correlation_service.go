package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/event"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/internal"
	"github.com/Swapnil565/Jarvis/internal/config"
	"github.com/Swapnil565/Jarvis/ports"
)

// CorrelationService scans a user's event history for reproducible
// cross-dimensional, within-dimension, and temporal patterns. One call is one
// full scan over current store state; results are upserted so re-detections
// merge instead of duplicating.
type CorrelationService struct {
	store    ports.EventStore
	patterns ports.PatternRepository
	cfg      config.AnalyticsConfig
	retry    RetryPolicy
	log      *internal.Logger

	detectors []detector
}

// detector is one independently evaluable detection rule. A failing detector
// yields zero patterns for that rule; it never aborts the scan.
type detector struct {
	name string
	run  func(in detectInput) ([]pattern.Pattern, error)
}

// detectInput is the shared read-only view a detector works from.
type detectInput struct {
	userID  core.UserID
	now     time.Time
	events  []event.Event
	buckets []event.DayBucket
}

// NewCorrelationService creates the pattern-detection engine.
func NewCorrelationService(store ports.EventStore, patterns ports.PatternRepository, cfg config.AnalyticsConfig, retry RetryPolicy) *CorrelationService {
	s := &CorrelationService{
		store:    store,
		patterns: patterns,
		cfg:      cfg,
		retry:    retry,
		log:      internal.NewDefaultLogger("correlation"),
	}
	s.detectors = []detector{
		{name: "cross_dimensional", run: s.detectCrossDimensional},
		{name: "within_dimension", run: s.detectWithinDimension},
		{name: "temporal", run: s.detectTemporal},
	}
	return s
}

// Detect runs all detectors over the lookback window, persists qualifying
// patterns via the keyed upsert, and returns the stored (merged) patterns
// ordered by confidence descending, then sample size descending.
//
// Too little history is not an error: it yields zero patterns.
func (s *CorrelationService) Detect(ctx context.Context, userID core.UserID) ([]pattern.Pattern, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -s.cfg.LookbackDays)

	events, err := fetchEvents(ctx, s.store, userID, start, now.Add(time.Hour), s.retry)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		s.log.Debug("no events for user %s, nothing to scan", userID)
		return nil, nil
	}

	in := detectInput{
		userID:  userID,
		now:     now,
		events:  events,
		buckets: event.GroupByDay(events),
	}

	// Detectors are CPU-bound and independent; run them concurrently and
	// collect per-slot so ordering stays deterministic.
	results := make([][]pattern.Pattern, len(s.detectors))
	g, _ := errgroup.WithContext(ctx)
	for i, d := range s.detectors {
		i, d := i, d
		g.Go(func() error {
			found, err := s.runDetector(d, in)
			if err != nil {
				// One rule failing must not abort the scan.
				s.log.Warn("detector %s failed for user %s: %v", d.name, userID, err)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	var candidates []pattern.Pattern
	for _, found := range results {
		for _, p := range found {
			if p.Confidence < pattern.MinConfidence {
				continue
			}
			candidates = append(candidates, p)
		}
	}
	pattern.SortCandidates(candidates)

	stored := make([]pattern.Pattern, 0, len(candidates))
	for _, p := range candidates {
		merged, err := s.patterns.UpsertPattern(ctx, p)
		if err != nil {
			s.log.Warn("failed to upsert pattern %q for user %s: %v", p.Description, userID, err)
			continue
		}
		stored = append(stored, merged)
	}

	if s.cfg.StaleAfter > 0 {
		if n, err := s.patterns.DeactivateStale(ctx, userID, now.Add(-s.cfg.StaleAfter)); err != nil {
			s.log.Warn("failed to deactivate stale patterns for user %s: %v", userID, err)
		} else if n > 0 {
			s.log.Info("deactivated %d stale patterns for user %s", n, userID)
		}
	}

	s.log.Info("scan finished for user %s: %d patterns from %d events", userID, len(stored), len(events))
	return stored, nil
}

// runDetector isolates a single rule, converting panics from numeric edge
// cases into rule-level errors.
func (s *CorrelationService) runDetector(d detector, in detectInput) (found []pattern.Pattern, err error) {
	defer func() {
		if r := recover(); r != nil {
			found = nil
			err = fmt.Errorf("detector %s panicked: %v", d.name, r)
		}
	}()
	return d.run(in)
}

// newPattern fills the bookkeeping fields shared by all detectors.
func (in detectInput) newPattern(typ pattern.Type, description string, sampleSize int, evidence map[string]interface{}) pattern.Pattern {
	ts := core.NewTimestamp(in.now)
	return pattern.Pattern{
		ID:              core.PatternID(core.NewID()),
		UserID:          in.userID,
		Type:            typ,
		Description:     description,
		Confidence:      pattern.ConfidenceForSample(sampleSize),
		SampleSize:      sampleSize,
		Evidence:        evidence,
		FirstDetectedAt: ts,
		LastSeenAt:      ts,
		Frequency:       1,
		IsActive:        true,
	}
}
