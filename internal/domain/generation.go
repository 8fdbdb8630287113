package domain

import "context"

// Generator is the shared language-model contract between layers.
// Implementations must honor ctx cancellation and map provider failures
// onto ErrGenerationTimeout / ErrGenerationUnavailable.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the model output and token usage.
type GenerationResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
