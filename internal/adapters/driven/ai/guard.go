package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// Ensure the guarded services implement the interfaces.
var (
	_ driven.LLMService       = (*GuardedLLM)(nil)
	_ driven.EmbeddingService = (*GuardedEmbedder)(nil)
)

// Breaker settings shared by every collaborator.
const (
	breakerMaxRequests  = 5
	breakerInterval     = 10 * time.Second
	breakerTimeout      = 30 * time.Second
	breakerMinRequests  = 3
	breakerFailureRatio = 0.6
)

// guard throttles calls and stops sending them once a collaborator keeps
// failing. A nil limiter means no throttling.
type guard struct {
	name    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func newGuard(name string, requestsPerSecond float64) *guard {
	g := &guard{name: name}
	if requestsPerSecond > 0 {
		burst := max(1, int(requestsPerSecond))
		g.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breakerFailureRatio
		},
		// A cancelled run says nothing about the collaborator's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Warn("%s circuit breaker opened, calls fail fast for %s", name, breakerTimeout)
				return
			}
			logger.Debug("%s circuit breaker: %s -> %s", name, from, to)
		},
	})
	return g
}

// do runs fn under the limiter and breaker. Rejections by either wrap
// domain.ErrCollaboratorUnavailable; errors from fn pass through.
func (g *guard) do(ctx context.Context, fn func() error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s rate limit: %w", domain.ErrCollaboratorUnavailable, g.name, err)
		}
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", domain.ErrCollaboratorUnavailable, g.name, err)
	}
	return err
}

// state reports the breaker state, for tests and diagnostics.
func (g *guard) state() gobreaker.State {
	return g.breaker.State()
}

// GuardedLLM wraps an LLM service with rate limiting and a circuit breaker.
type GuardedLLM struct {
	inner driven.LLMService
	guard *guard
}

// NewGuardedLLM wraps svc. A non-positive requestsPerSecond disables throttling.
func NewGuardedLLM(svc driven.LLMService, requestsPerSecond float64) *GuardedLLM {
	return &GuardedLLM{
		inner: svc,
		guard: newGuard("llm:"+svc.ModelName(), requestsPerSecond),
	}
}

// Generate calls the wrapped service through the guard.
func (g *GuardedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := g.guard.do(ctx, func() error {
		var err error
		out, err = g.inner.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

// ModelName returns the wrapped model name.
func (g *GuardedLLM) ModelName() string { return g.inner.ModelName() }

// Ping bypasses the guard so a health check never trips the breaker.
func (g *GuardedLLM) Ping(ctx context.Context) error { return g.inner.Ping(ctx) }

// Close closes the wrapped service.
func (g *GuardedLLM) Close() error { return g.inner.Close() }

// GuardedEmbedder wraps an embedding service with rate limiting and a
// circuit breaker. A batch counts as one request.
type GuardedEmbedder struct {
	inner driven.EmbeddingService
	guard *guard
}

// NewGuardedEmbedder wraps svc. A non-positive requestsPerSecond disables throttling.
func NewGuardedEmbedder(svc driven.EmbeddingService, requestsPerSecond float64) *GuardedEmbedder {
	return &GuardedEmbedder{
		inner: svc,
		guard: newGuard("embedding:"+svc.ModelName(), requestsPerSecond),
	}
}

// Embed calls the wrapped service through the guard.
func (g *GuardedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := g.guard.do(ctx, func() error {
		var err error
		out, err = g.inner.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch calls the wrapped service through the guard.
func (g *GuardedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := g.guard.do(ctx, func() error {
		var err error
		out, err = g.inner.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Dimensions returns the wrapped vector size.
func (g *GuardedEmbedder) Dimensions() int { return g.inner.Dimensions() }

// ModelName returns the wrapped model name.
func (g *GuardedEmbedder) ModelName() string { return g.inner.ModelName() }

// Ping bypasses the guard.
func (g *GuardedEmbedder) Ping(ctx context.Context) error { return g.inner.Ping(ctx) }

// Close closes the wrapped service.
func (g *GuardedEmbedder) Close() error { return g.inner.Close() }
