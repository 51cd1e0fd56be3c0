// Package resilience guards calls to external services with a circuit breaker and
// bounded retries.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without calling the service while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

const (
	defaultMaxFailures = 5
	defaultOpenTimeout = 30 * time.Second
)

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration

	// Healthy reports errors that still prove the service is reachable, such as an
	// application error in a well formed response. They do not count as failures.
	Healthy func(error) bool
}

// Breaker trips after MaxFailures consecutive failures and lets a single probe
// through once OpenTimeout has passed.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a breaker that logs its state changes.
func NewBreaker(cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	log := logger.With("component", "circuit_breaker", "name", cfg.Name)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}
	if cfg.Healthy != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || cfg.Healthy(err)
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", b.cb.Name(), ErrCircuitOpen)
	}
	return err
}

// State is the breaker state name: "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// RetryPolicy bounds the retries of one call. Delay doubles after each attempt.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration

	// RetryIf selects the retryable errors. Nil retries everything but ErrCircuitOpen.
	RetryIf func(error) bool
}

// Retry runs fn until it succeeds, the attempts are spent, the error is not retryable
// or ctx is done. Only the last error is returned.
func Retry(ctx context.Context, p RetryPolicy, logger *slog.Logger, fn func() error) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	attempts := max(p.Attempts, 1)
	retryIf := func(err error) bool {
		if errors.Is(err, ErrCircuitOpen) {
			return false
		}
		return p.RetryIf == nil || p.RetryIf(err)
	}

	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryIf),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < attempts {
				logger.WarnContext(ctx, "Call failed, retrying", "attempt", n+1, "max_attempts", attempts, "error", err)
			}
		}),
	)
}
