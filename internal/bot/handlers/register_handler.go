package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nanotipbot/internal/telegram"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// NewRegisterHandler returns a handler for the /register command.
func NewRegisterHandler(deps HandlerDeps) bot.HandlerFunc {
	return registerHandler{deps}.Handle
}

type registerHandler struct {
	deps HandlerDeps
}

func (h registerHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	registerSender(ctx, h.deps, update.Message.From)
}

// registerSender runs the registration of from and tells them to retry when it fails.
func registerSender(ctx context.Context, deps HandlerDeps, from *models.User) {
	log := deps.Logger.With("handler", "register")
	userID := strconv.FormatInt(from.ID, 10)

	log.InfoContext(ctx, "Handling registration", "user_id", from.ID)
	if err := deps.Registrar.Register(ctx, tipping.PlatformTelegram, userID, telegram.MemberName(from)); err != nil {
		log.ErrorContext(ctx, "Registration failed", "error", err, "user_id", from.ID)
		if err := deps.Notifier.DirectMessage(ctx, userID, deps.Config.Messages.TryAgain); err != nil {
			log.ErrorContext(ctx, "Failed to send registration failure message", "error", err, "user_id", from.ID)
		}
	}
}
