package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pkordes/trip-ledger/internal/metrics"
)

// GuardConfig tunes the rate limit and circuit breaker around a provider.
type GuardConfig struct {
	// RatePerSecond is the sustained request rate. Zero disables limiting.
	RatePerSecond float64
	Burst         int

	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultGuardConfig returns the limits used in production.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RatePerSecond:    1,
		Burst:            2,
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// Guarded wraps a Generator with a rate limiter and a circuit breaker, and
// records the outcome of every call.
type Guarded struct {
	next     Generator
	provider string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

// NewGuarded wraps next. provider labels metrics and breaker state logs.
func NewGuarded(next Generator, provider string, cfg GuardConfig, log *slog.Logger) *Guarded {
	if log == nil {
		log = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultGuardConfig().FailureThreshold
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := max(cfg.Burst, 1)

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    provider,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("generator circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	})

	return &Guarded{
		next:     next,
		provider: provider,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  breaker,
	}
}

// Generate implements Generator.
func (g *Guarded) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		metrics.GeneratorCalls.WithLabelValues(g.provider, "rate_limited").Inc()
		return "", fmt.Errorf("ai.Guarded.Generate: rate limiter: %w", err)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Generate(ctx, prompt)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "open"
		}
		metrics.GeneratorCalls.WithLabelValues(g.provider, outcome).Inc()
		return "", fmt.Errorf("ai.Guarded.Generate: %w", err)
	}
	metrics.GeneratorCalls.WithLabelValues(g.provider, "ok").Inc()
	return out.(string), nil
}
