package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nanotipbot/internal/telegram"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// NewHelpHandler returns a handler for the /help command. It answers in the chat it was
// asked in, groups included.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")
	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /help command", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	text := h.deps.Config.Messages.Help
	if info := h.deps.Config.Telegram.BotInfo; info != nil && info.Username != "" {
		text = strings.ReplaceAll(text, "@botname", "@"+info.Username)
	}
	source := &tipping.Message{
		Platform: tipping.PlatformTelegram,
		ID:       telegram.MessageID(msg.Chat.ID, msg.ID),
		Chat:     tipping.ChatContext{ChatID: msg.Chat.ID},
	}
	if err := h.deps.Notifier.Reply(ctx, source, text); err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", msg.Chat.ID)
	}
}
