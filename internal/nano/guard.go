package nano

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/edgard/nanotipbot/internal/config"
	"github.com/edgard/nanotipbot/internal/resilience"
)

// Guarded puts a circuit breaker in front of a Client. Reads and pocketing are retried
// on transport failures; account creation is never retried so a slow node cannot
// produce two accounts for one user.
type Guarded struct {
	client  *Client
	breaker *resilience.Breaker
	retry   resilience.RetryPolicy
	logger  *slog.Logger
}

// NewGuarded wraps client with the breaker and retry settings of the nano config section.
func NewGuarded(client *Client, cfg config.NanoConfig, logger *slog.Logger) *Guarded {
	healthy := func(err error) bool {
		var rpcErr *RPCError
		return errors.As(err, &rpcErr)
	}
	return &Guarded{
		client: client,
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:        "nano_node",
			MaxFailures: cfg.MaxFailures,
			OpenTimeout: cfg.OpenTimeout,
			Healthy:     healthy,
		}, logger),
		retry: resilience.RetryPolicy{
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
			RetryIf:  func(err error) bool { return !healthy(err) },
		},
		logger: client.logger,
	}
}

func (g *Guarded) BalanceRaw(ctx context.Context, account string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := resilience.Retry(ctx, g.retry, g.logger, func() error {
		return g.breaker.Do(func() error {
			var err error
			balance, err = g.client.BalanceRaw(ctx, account)
			return err
		})
	})
	return balance, err
}

func (g *Guarded) CollectPending(ctx context.Context, account string) error {
	return resilience.Retry(ctx, g.retry, g.logger, func() error {
		return g.breaker.Do(func() error {
			return g.client.CollectPending(ctx, account)
		})
	})
}

func (g *Guarded) CreateAccount(ctx context.Context) (string, error) {
	var account string
	err := g.breaker.Do(func() error {
		var err error
		account, err = g.client.CreateAccount(ctx)
		return err
	})
	return account, err
}

// State reports the breaker state for health checks.
func (g *Guarded) State() string {
	return g.breaker.State()
}
