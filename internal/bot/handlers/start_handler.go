package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")
	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command", "user_id", msg.From.ID)
	if err := h.deps.Notifier.DirectMessage(ctx, strconv.FormatInt(msg.From.ID, 10), h.deps.Config.Messages.Welcome); err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "user_id", msg.From.ID)
	}
}
