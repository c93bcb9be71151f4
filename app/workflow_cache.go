package app

import (
	"sync"
	"time"

	"github.com/Swapnil565/Jarvis/domain/core"
	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/domain/intervention"
	"github.com/Swapnil565/Jarvis/domain/pattern"
	"github.com/Swapnil565/Jarvis/domain/workflow"
)

// CacheEntry is one user's latest workflow output. Entries are replaced
// whole on each periodic run (last write wins); the event-triggered path only
// appends interventions.
type CacheEntry struct {
	Result        workflow.PeriodicResult
	Patterns      []pattern.Pattern
	Forecast      *forecast.Forecast
	Crash         *forecast.CrashPrediction
	Interventions []intervention.Intervention
	StoredAt      time.Time
}

// WorkflowCache holds per-user workflow results with TTL expiry and a bounded
// entry count. Reads past the TTL miss; the stale entry is evicted lazily.
type WorkflowCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	entries    map[core.UserID]*CacheEntry
}

// NewWorkflowCache creates a cache with the given freshness window and size
// bound.
func NewWorkflowCache(ttl time.Duration, maxEntries int) *WorkflowCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &WorkflowCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    map[core.UserID]*CacheEntry{},
	}
}

// Put stores a user's latest result, evicting the oldest entry when full.
func (c *WorkflowCache) Put(userID core.UserID, entry CacheEntry) {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[userID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[userID] = &entry
}

// Get returns a fresh copy of the user's entry, or false on miss or expiry.
func (c *WorkflowCache) Get(userID core.UserID) (CacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return CacheEntry{}, false
	}
	if c.ttl > 0 && time.Since(e.StoredAt) > c.ttl {
		c.mu.Lock()
		if cur, still := c.entries[userID]; still && cur == e {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return CacheEntry{}, false
	}
	return *e, true
}

// MergeInterventions appends fast-path interventions into the cached entry so
// a status or insights query between periodic runs sees them. No-op when the
// user has no live entry.
func (c *WorkflowCache) MergeInterventions(userID core.UserID, ivs []intervention.Intervention) {
	if len(ivs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return
	}
	e.Interventions = append(e.Interventions, ivs...)
	e.Result.InterventionsTriggered += len(ivs)
}

// Status answers a status query from the cache alone. All fields nil when
// the user has never run or the entry expired.
func (c *WorkflowCache) Status(userID core.UserID) workflow.StatusReport {
	e, ok := c.Get(userID)
	if !ok {
		return workflow.StatusReport{}
	}
	at := e.StoredAt
	st := e.Result.Status
	age := time.Since(e.StoredAt).Milliseconds()
	return workflow.StatusReport{LastRunAt: &at, Status: &st, CacheAgeMs: &age}
}

// Len reports the live entry count.
func (c *WorkflowCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *WorkflowCache) evictOldestLocked() {
	var oldest core.UserID
	var oldestAt time.Time
	first := true
	for id, e := range c.entries {
		if first || e.StoredAt.Before(oldestAt) {
			oldest, oldestAt, first = id, e.StoredAt, false
		}
	}
	if !first {
		delete(c.entries, oldest)
	}
}
