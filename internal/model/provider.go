// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model abstracts language-model completion providers behind a
// uniform interface with retry and provider fallback.
// See docs/ARCHITECTURE § Model Providers.
package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoProvider is returned when a completion is requested but no provider
// is configured.
var ErrNoProvider = errors.New("no model provider configured")

// Provider produces a text completion for a prompt under an output budget.
// Each backing API (Anthropic, OpenAI) implements this interface per the
// Strategy pattern.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// backoffBase controls the base duration for exponential backoff between
// provider retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Chain tries an ordered list of providers: each provider is retried with
// exponential backoff, and on exhaustion the chain falls through to the
// next provider. Completion fails only when every provider has failed.
type Chain struct {
	providers  []Provider
	maxRetries int
	log        zerolog.Logger
}

// NewChain builds a provider chain. When maxRetries is 0 the default (3)
// is used.
func NewChain(providers []Provider, maxRetries int, log zerolog.Logger) *Chain {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Chain{providers: providers, maxRetries: maxRetries, log: log}
}

// Empty reports whether the chain has no providers.
func (c *Chain) Empty() bool { return len(c.providers) == 0 }

// Complete requests a completion from the first provider that succeeds.
func (c *Chain) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProvider
	}

	var lastErr error
	for _, p := range c.providers {
		text, err := c.completeWithRetry(ctx, p, prompt, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warn().Str("provider", p.Name()).Err(err).Msg("provider failed, trying next")
	}
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}

func (c *Chain) completeWithRetry(ctx context.Context, p Provider, prompt string, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := p.Complete(ctx, prompt, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%s: after %d attempts: %w", p.Name(), c.maxRetries, lastErr)
}
