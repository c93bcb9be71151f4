package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Swapnil565/Jarvis/adapters/llm/template"
	"github.com/Swapnil565/Jarvis/internal"
	"github.com/Swapnil565/Jarvis/ports"
)

// SummarizerAdapter implements TextGenerator over an LLM client with a
// deterministic template fallback. Generated summaries are cached so repeated
// phrasings of the same insight cost one completion per TTL window.
type SummarizerAdapter struct {
	config   Config
	client   ports.LLMClient
	fallback ports.TextGenerator
	log      *internal.Logger

	mu    sync.Mutex
	cache map[string]cachedSummary
}

type cachedSummary struct {
	text     string
	storedAt time.Time
}

// NewSummarizerAdapter creates the LLM-backed text generator. Fails only on
// missing credentials; callers without an API key use template.New directly.
func NewSummarizerAdapter(config Config) (*SummarizerAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &SummarizerAdapter{
		config:   config,
		client:   client,
		fallback: template.New(),
		log:      internal.NewDefaultLogger("llm"),
		cache:    make(map[string]cachedSummary),
	}, nil
}

// NewSummarizerAdapterWithClient wires an explicit client, for tests.
func NewSummarizerAdapterWithClient(config Config, client ports.LLMClient) *SummarizerAdapter {
	return &SummarizerAdapter{
		config:   config,
		client:   client,
		fallback: template.New(),
		log:      internal.NewDefaultLogger("llm"),
		cache:    make(map[string]cachedSummary),
	}
}

// Summarize phrases the context in natural language, at most 100 words. LLM
// failure degrades to the template backend, never to an error.
func (a *SummarizerAdapter) Summarize(ctx context.Context, sc ports.SummaryContext) (string, error) {
	key := a.cacheKey(sc)
	if text, ok := a.cached(key); ok {
		return text, nil
	}

	text, err := a.client.ChatCompletion(ctx, a.config.Model, a.prompt(sc), a.config.MaxTokens)
	if err != nil || text == "" {
		a.log.Debug("completion failed, using template: %v", err)
		return a.fallback.Summarize(ctx, sc)
	}

	text = template.Clamp(text)
	a.store(key, text)
	return text, nil
}

// cacheKey buckets confidence to one decimal so minor re-scoring of the same
// insight still hits the cache.
func (a *SummarizerAdapter) cacheKey(sc ports.SummaryContext) string {
	bucket := math.Round(sc.Confidence*10) / 10
	return fmt.Sprintf("%s|%s|%.1f", sc.Kind, sc.Description, bucket)
}

func (a *SummarizerAdapter) cached(key string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.cache[key]
	if !ok {
		return "", false
	}
	if a.config.CacheTTL > 0 && time.Since(entry.storedAt) > a.config.CacheTTL {
		delete(a.cache, key)
		return "", false
	}
	return entry.text, true
}

func (a *SummarizerAdapter) store(key, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache[key] = cachedSummary{text: text, storedAt: time.Now()}
}

func (a *SummarizerAdapter) prompt(sc ports.SummaryContext) string {
	dataJSON, _ := json.Marshal(sc.Data)
	return fmt.Sprintf(`Rewrite the following %s for the user in a warm, direct tone.
Requirements: at most 100 words, cite at least one concrete number from the data, no preamble.

Title: %s
Draft: %s
Data: %s`, sc.Kind, sc.Title, sc.Description, string(dataJSON))
}
