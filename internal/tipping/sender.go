package tipping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// SenderValidator checks that the sender is registered and can cover the tip.
type SenderValidator struct {
	Accounts AccountStore
	Node     Node
	Logger   *slog.Logger
}

// Validate returns the sender's account when its balance, after collecting pending
// funds, covers totalRaw. totalText is the attempted amount quoted in the rejection.
func (v SenderValidator) Validate(ctx context.Context, msg *Message, totalRaw decimal.Decimal, totalText string, msgs Messages) (Account, error) {
	acct, err := v.Accounts.GetAccount(ctx, msg.SenderID, msg.Platform)
	switch {
	case errors.Is(err, ErrNoAccount):
		return Account{}, reject(KindNoAccount, msgs.NoAccount)
	case err != nil:
		return Account{}, fmt.Errorf("failed to load sender account: %w", err)
	}

	if !acct.Registered {
		if err := v.Accounts.SetRegistered(ctx, msg.SenderID, msg.Platform); err != nil {
			return Account{}, fmt.Errorf("failed to mark sender registered: %w", err)
		}
		acct.Registered = true
		if v.Logger != nil {
			v.Logger.InfoContext(ctx, "Sender registered on first tip", "sender_id", msg.SenderID, "platform", msg.Platform)
		}
	}

	if err := v.Node.CollectPending(ctx, acct.Address); err != nil {
		return Account{}, fmt.Errorf("failed to collect pending funds: %w", err)
	}

	balance, err := v.Node.BalanceRaw(ctx, acct.Address)
	if err != nil {
		return Account{}, fmt.Errorf("failed to read sender balance: %w", err)
	}

	if balance.LessThan(totalRaw) {
		return Account{}, reject(KindInsufficientBalance, fmt.Sprintf(msgs.InsufficientFunds, totalText))
	}
	return acct, nil
}
