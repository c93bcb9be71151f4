package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Swapnil565/Jarvis/adapters/llm/template"
	"github.com/Swapnil565/Jarvis/ports"
)

func testConfig() Config {
	return Config{
		Model:     "gpt-4o-mini",
		APIKey:    "test-key",
		MaxTokens: 256,
		Timeout:   time.Second,
		CacheTTL:  time.Hour,
	}
}

func TestSummarizeCachesRepeatedContexts(t *testing.T) {
	mock := &MockLLMClient{Response: "You train hard 7 days straight. Rest today."}
	adapter := NewSummarizerAdapterWithClient(testConfig(), mock)

	sc := ports.SummaryContext{
		Kind:        "warning",
		Title:       "Overtraining risk detected",
		Description: "7 consecutive high-intensity days without rest",
		Confidence:  0.81,
	}

	first, err := adapter.Summarize(context.Background(), sc)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	second, err := adapter.Summarize(context.Background(), sc)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if first != second {
		t.Errorf("cached summary changed: %q vs %q", first, second)
	}
	if mock.Calls != 1 {
		t.Errorf("expected 1 completion call, got %d", mock.Calls)
	}
}

func TestSummarizeConfidenceBucketSharesCache(t *testing.T) {
	mock := &MockLLMClient{Response: "Same insight, barely rescored."}
	adapter := NewSummarizerAdapterWithClient(testConfig(), mock)

	sc := ports.SummaryContext{Kind: "pattern", Description: "workouts lift task completion", Confidence: 0.81}
	adapter.Summarize(context.Background(), sc)

	sc.Confidence = 0.83 // same 0.8 bucket
	adapter.Summarize(context.Background(), sc)

	if mock.Calls != 1 {
		t.Errorf("expected same-bucket rescore to hit cache, got %d calls", mock.Calls)
	}
}

func TestSummarizeFallsBackOnClientError(t *testing.T) {
	mock := &MockLLMClient{Error: errors.New("rate limited")}
	adapter := NewSummarizerAdapterWithClient(testConfig(), mock)

	sc := ports.SummaryContext{
		Kind:        "warning",
		Description: "7 consecutive high-intensity days without rest",
	}
	text, err := adapter.Summarize(context.Background(), sc)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if text != sc.Description {
		t.Errorf("expected template fallback to keep the description, got %q", text)
	}
}

func TestSummarizeClampsLongOutput(t *testing.T) {
	long := strings.Repeat("word ", 150)
	mock := &MockLLMClient{Response: long}
	adapter := NewSummarizerAdapterWithClient(testConfig(), mock)

	text, err := adapter.Summarize(context.Background(), ports.SummaryContext{Kind: "insight", Description: "x"})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got := len(strings.Fields(text)); got > template.MaxWords {
		t.Errorf("summary exceeds %d words: %d", template.MaxWords, got)
	}
}

func TestNewSummarizerAdapterRequiresKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	if _, err := NewSummarizerAdapter(cfg); err == nil {
		t.Error("expected error on missing API key")
	}
}
