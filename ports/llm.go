package ports

import "context"

// LLMClient interface for LLM providers.
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)
}
