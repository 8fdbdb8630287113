package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/metrics"
)

// InstrumentedGenerator wraps a Generator with logging and Prometheus metrics.
// Providers stay metric-free so stacking decorators never double-counts.
type InstrumentedGenerator struct {
	inner    domain.Generator
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumented wraps a generator with observability.
func NewInstrumented(
	inner domain.Generator, provider, model string, logger *zap.Logger,
) *InstrumentedGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedGenerator{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// Generate delegates to the inner generator and records outcome, latency
// and token usage.
func (g *InstrumentedGenerator) Generate(
	ctx context.Context, prompt string,
) (domain.GenerationResult, error) {
	start := time.Now()

	result, err := g.inner.Generate(ctx, prompt)

	duration := time.Since(start)
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, errorType(err)).Inc()
		g.logger.Error("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	if result.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").
			Add(float64(result.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").
			Add(float64(result.CompletionTokens))
	}

	g.logger.Debug("Generation request completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Int("answer_chars", len(result.Text)),
	)

	return result, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
