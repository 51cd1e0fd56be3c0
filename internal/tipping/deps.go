package tipping

import (
	"context"

	"github.com/shopspring/decimal"
)

// HandleDirectory resolves public handles against a remote user directory.
type HandleDirectory interface {
	// ResolveByHandle returns ErrNotFound for unknown handles.
	ResolveByHandle(ctx context.Context, handle string) (Recipient, error)
}

// ChatDirectory resolves members of a single chat. Both methods return ErrNotFound for
// unknown members.
type ChatDirectory interface {
	ResolveByName(ctx context.Context, chatID int64, name string) (Recipient, error)
	ResolveByMemberID(ctx context.Context, chatID int64, memberID string) (Recipient, error)
}

// AccountStore gives access to registered settlement accounts.
type AccountStore interface {
	// GetAccount returns ErrNoAccount when the user never registered.
	GetAccount(ctx context.Context, userID string, platform Platform) (Account, error)
	// SetRegistered is idempotent.
	SetRegistered(ctx context.Context, userID string, platform Platform) error
}

// Node is the settlement node holding account balances in raw units.
type Node interface {
	CollectPending(ctx context.Context, account string) error
	BalanceRaw(ctx context.Context, account string) (decimal.Decimal, error)
}

// Notifier delivers replies and direct messages on the originating platform.
type Notifier interface {
	Reply(ctx context.Context, msg *Message, text string) error
	DirectMessage(ctx context.Context, recipientID, text string) error
	DirectMessageWithImage(ctx context.Context, recipientID string, image []byte, text string) error
}

// Sink accepts validated instructions for settlement.
type Sink interface {
	Submit(ctx context.Context, instruction TipInstruction) error
}

// RecipientSource builds the ordered, deduplicated recipient list of a tip command.
// Implementations return an *UnresolvedError when a mention cannot be resolved, in which
// case no recipient at all is returned, and a plain error for collaborator failures.
type RecipientSource interface {
	Resolve(ctx context.Context, msg *Message, cmd Command) ([]Recipient, error)
}
