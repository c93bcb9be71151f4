package ports

import "context"

// SummaryContext carries what a text backend needs to phrase a pattern
// insight or an intervention message.
type SummaryContext struct {
	// Kind is "pattern" or the intervention type ("warning", "suggestion", ...).
	Kind string `json:"kind"`

	Title       string  `json:"title,omitempty"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence,omitempty"`

	// Data holds the concrete numbers (day counts, percentages, scores) the
	// generated text must cite at least one of.
	Data map[string]interface{} `json:"data,omitempty"`
}

// TextGenerator produces user-facing natural language, at most 100 words.
// Implementations must be callable synchronously with a bounded timeout;
// callers substitute a deterministic template on failure.
type TextGenerator interface {
	Summarize(ctx context.Context, sc SummaryContext) (string, error)
}
