// Package account manages the users' deposit accounts: the account store used by the
// tip pipeline, registration through !register, and the QR codes of deposit addresses.
package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// IsRegisterCommand reports whether tokens ask for an account: "!register" anywhere, or
// the Telegram command form "/register", optionally addressed as "/register@bot".
func IsRegisterCommand(tokens []string) bool {
	for _, t := range tokens {
		if t == "!register" || t == "/register" || strings.HasPrefix(t, "/register@") {
			return true
		}
	}
	return false
}

// Store adapts database.Store to the pipeline's account store.
type Store struct {
	DB database.Store
}

func (s Store) GetAccount(ctx context.Context, userID string, platform tipping.Platform) (tipping.Account, error) {
	u, err := s.DB.GetUser(ctx, userID, string(platform))
	if err != nil {
		return tipping.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	if u == nil {
		return tipping.Account{}, tipping.ErrNoAccount
	}
	return tipping.Account{Address: u.Account, Registered: u.Register}, nil
}

func (s Store) SetRegistered(ctx context.Context, userID string, platform tipping.Platform) error {
	return s.DB.MarkRegistered(ctx, userID, string(platform))
}
