package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/nanotipbot/internal/telegram"
)

// RegisterAllCommands returns the bot commands keyed by name. Everything else goes to the
// default handler, NewMessageHandler.
func RegisterAllCommands(deps HandlerDeps) map[string]telegram.RegisteredHandler {
	private := []tgbot.Middleware{PrivateOnly(deps)}

	return map[string]telegram.RegisteredHandler{
		"/start": {
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "start",
			Handler:     NewStartHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  private,
		},
		"/help": {
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "help",
			Handler:     NewHelpHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		"/register": {
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "register",
			Handler:     NewRegisterHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  private,
		},
	}
}
