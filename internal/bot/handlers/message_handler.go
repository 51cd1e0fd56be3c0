package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nanotipbot/internal/account"
	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/telegram"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// NewMessageHandler returns the default handler. Group messages update the chat member
// directory and go through the tip pipeline; private messages may ask for an account.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch msg.Chat.Type {
	case models.ChatTypePrivate:
		text, _ := telegram.Text(msg)
		if account.IsRegisterCommand(tipping.Tokenize(text)) {
			registerSender(ctx, h.deps, msg.From)
		}

	case models.ChatTypeGroup, models.ChatTypeSupergroup:
		h.trackMember(ctx, msg)

		tm := telegram.NormalizeMessage(msg, h.deps.botID())
		out := h.deps.Tips.Handle(ctx, &tm)
		h.deps.Logger.DebugContext(ctx, "Group message processed",
			"handler", "message", "chat_id", msg.Chat.ID, "message_id", msg.ID,
			"status", out.Status.String(), "stage", out.Stage.String())
	}
}

// trackMember records the sender as a member of the chat so that later tips can find
// them by name.
func (h messageHandler) trackMember(ctx context.Context, msg *models.Message) {
	if msg.From.IsBot {
		return
	}
	member := &database.ChatMember{
		ChatID:     msg.Chat.ID,
		ChatName:   telegram.ChatName(msg.Chat),
		MemberID:   strconv.FormatInt(msg.From.ID, 10),
		MemberName: telegram.MemberName(msg.From),
	}
	if err := h.deps.Store.UpsertChatMember(ctx, member); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to record chat member",
			"handler", "message", "error", err, "chat_id", msg.Chat.ID, "member_id", member.MemberID)
	}
}
