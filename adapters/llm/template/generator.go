// Package template is the deterministic text backend: it phrases summaries
// from the structured context alone, with no external calls. It is both the
// zero-config default and the fallback when LLM generation fails.
package template

import (
	"context"
	"strings"

	"github.com/Swapnil565/Jarvis/ports"
)

// MaxWords is the hard cap on generated summaries.
const MaxWords = 100

// Generator implements TextGenerator with fixed phrasing.
type Generator struct{}

// New creates a template generator.
func New() *Generator {
	return &Generator{}
}

// Summarize returns the rule's own data-citing description, clamped to the
// word cap.
func (g *Generator) Summarize(ctx context.Context, sc ports.SummaryContext) (string, error) {
	return Clamp(sc.Description), nil
}

// Clamp truncates text to MaxWords words.
func Clamp(text string) string {
	words := strings.Fields(text)
	if len(words) <= MaxWords {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[:MaxWords], " ")
}
