// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides the two language-model services the discovery agent
// consumes: the crawler, which turns a research question into search
// strings, and the selector, which scores a candidate's relevance.
//
// Both are built on a Completer (prompt in, text out). Claude and Ollama
// completers talk to real model servers; the mocks are deterministic and
// back tests and USE_MOCK_MODELS runs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-agent/pkg/types"
)

// Errors returned by the services.
var (
	ErrScoreCount    = errors.New("selector returned wrong number of scores")
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrBadScore      = errors.New("selector returned a non-finite score")
)

// Crawler generates free text from a prompt.
type Crawler interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Selector scores a batch of prompts. The result has one score per prompt,
// in input order.
type Selector interface {
	Score(ctx context.Context, prompts []string) ([]float64, error)
}

// Completer sends one prompt to a model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CheckScores enforces the selector contract: one finite score per prompt.
func CheckScores(scores []float64, prompts int) error {
	if len(scores) != prompts {
		return fmt.Errorf("%w: got %d, want %d", ErrScoreCount, len(scores), prompts)
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: prompt %d scored %v", ErrBadScore, i, s)
		}
	}
	return nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// retrying retries failed completions with exponential backoff.
type retrying struct {
	next       Completer
	maxRetries int
}

// WithRetry wraps c so failed calls are retried up to maxRetries times.
func WithRetry(c Completer, maxRetries int) Completer {
	if maxRetries <= 0 {
		return c
	}
	return &retrying{next: c, maxRetries: maxRetries}
}

func (r *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}

// limited waits on a token bucket before every call.
type limited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit wraps c so calls are spaced to at most rps per second.
// A non-positive rps returns c unchanged.
func WithRateLimit(c Completer, rps float64) Completer {
	if rps <= 0 {
		return c
	}
	return &limited{next: c, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (l *limited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Complete(ctx, prompt)
}

// Services bundles the crawler and selector built from one configuration.
type Services struct {
	Crawler  Crawler
	Selector Selector
	Provider types.LLMProvider
}

// New builds the services named by cfg. useMock forces the mock provider.
func New(cfg types.LLMConfig, useMock bool) (Services, error) {
	provider := cfg.Provider
	if useMock {
		provider = types.LLMMock
	}

	var c Completer
	switch provider {
	case types.LLMMock:
		return Services{Crawler: &MockCrawler{}, Selector: &MockSelector{}, Provider: types.LLMMock}, nil
	case types.LLMAnthropic, "":
		if cfg.APIKey == "" {
			return Services{}, fmt.Errorf("anthropic provider needs an API key (set ANTHROPIC_API_KEY or .secrets/anthropic-api-key)")
		}
		provider = types.LLMAnthropic
		c = NewClaudeCompleter(cfg)
	case types.LLMOllama:
		c = NewOllamaCompleter(cfg)
	default:
		return Services{}, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	c = WithRateLimit(WithRetry(c, maxRetries), cfg.RequestsPerSecond)

	return Services{
		Crawler:  &CompleterCrawler{Completer: c},
		Selector: &CompleterSelector{Completer: c},
		Provider: provider,
	}, nil
}
