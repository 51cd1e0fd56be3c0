package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PrivateOnly drops updates that do not come from a private chat with a user. Account
// commands answer with direct messages, which only make sense there.
func PrivateOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil {
				return
			}
			if msg.Chat.Type != models.ChatTypePrivate {
				deps.Logger.DebugContext(ctx, "Private command sent to a group ignored",
					"middleware", "PrivateOnly", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)
				return
			}
			next(ctx, bot, update)
		}
	}
}
