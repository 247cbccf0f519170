package genai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tmeadows/outboxd/internal/instrumentation"
	"github.com/tmeadows/outboxd/internal/logging"
)

// Chain tries providers in order until one returns non-empty output.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// NewChain creates a fallback chain over the given providers. The
// timeout bounds each individual provider attempt, not the whole chain.
func NewChain(providers []Provider, timeout time.Duration, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Chain{providers: providers, timeout: timeout, logger: logger}
}

// WithInstrumentation attaches per-attempt metrics recording.
func (c *Chain) WithInstrumentation(metrics *instrumentation.Metrics) *Chain {
	c.metrics = metrics
	return c
}

// Providers returns the names of the configured providers in order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate returns the first non-empty provider result for the prompt.
// Provider errors and empty outputs are logged and the next provider is
// tried. When every provider fails, or no provider is configured,
// Generate returns an empty string. It never returns an error; callers
// check for empty output and fall back to their own content.
func (c *Chain) Generate(ctx context.Context, prompt string) string {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			c.logger.Warn("generation aborted",
				logging.Operation("generate"),
				logging.Err(ctx.Err()))
			return ""
		}

		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		result, err := p.Generate(attemptCtx, prompt)
		cancel()

		if err != nil {
			c.metrics.RecordGenerationAttempt(ctx, p.Name(), instrumentation.StatusError, time.Since(start))
			c.logger.Warn("provider failed",
				logging.Operation("generate"),
				logging.Provider(p.Name()),
				slog.Duration(logging.KeyDuration, time.Since(start)),
				logging.Err(err))
			continue
		}

		result = strings.TrimSpace(result)
		if result == "" {
			c.metrics.RecordGenerationAttempt(ctx, p.Name(), instrumentation.StatusError, time.Since(start))
			c.logger.Warn("provider returned empty output",
				logging.Operation("generate"),
				logging.Provider(p.Name()),
				slog.Duration(logging.KeyDuration, time.Since(start)))
			continue
		}

		c.metrics.RecordGenerationAttempt(ctx, p.Name(), instrumentation.StatusSuccess, time.Since(start))
		c.logger.Info("generation succeeded",
			logging.Operation("generate"),
			logging.Provider(p.Name()),
			slog.Duration(logging.KeyDuration, time.Since(start)),
			logging.Status(logging.StatusSuccess))
		return result
	}

	c.logger.Error("all providers failed",
		logging.Operation("generate"),
		slog.Int("providers", len(c.providers)))
	return ""
}
