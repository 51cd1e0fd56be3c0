package telegram

import (
	"context"
	"fmt"

	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// ChatDirectory resolves recipients among the members the bot has seen in a chat.
type ChatDirectory struct {
	DB database.Store
}

func (d ChatDirectory) ResolveByName(ctx context.Context, chatID int64, name string) (tipping.Recipient, error) {
	m, err := d.DB.FindChatMemberByName(ctx, chatID, name)
	return recipient(m, err)
}

func (d ChatDirectory) ResolveByMemberID(ctx context.Context, chatID int64, memberID string) (tipping.Recipient, error) {
	m, err := d.DB.FindChatMemberByID(ctx, chatID, memberID)
	return recipient(m, err)
}

func recipient(m *database.ChatMember, err error) (tipping.Recipient, error) {
	if err != nil {
		return tipping.Recipient{}, fmt.Errorf("failed to look up chat member: %w", err)
	}
	if m == nil {
		return tipping.Recipient{}, tipping.ErrNotFound
	}
	return tipping.Recipient{ID: m.MemberID, DisplayName: m.MemberName}, nil
}
