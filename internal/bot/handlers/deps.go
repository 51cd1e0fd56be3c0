// Package handlers contains the Telegram update handlers of the tip bot, along with their
// registration logic and middleware.
package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/nanotipbot/internal/config"
	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// TipHandler runs a message through the tip pipeline and performs its side effect.
type TipHandler interface {
	Handle(ctx context.Context, msg *tipping.Message) tipping.Outcome
}

// Registrar creates accounts for users who ask for one.
type Registrar interface {
	Register(ctx context.Context, platform tipping.Platform, userID, userName string) error
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Tips      TipHandler
	Registrar Registrar
	Notifier  tipping.Notifier
}

func (d HandlerDeps) botID() int64 {
	if d.Config.Telegram.BotInfo == nil {
		return 0
	}
	return d.Config.Telegram.BotInfo.ID
}
