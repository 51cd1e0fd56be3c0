// Package tasks implements the scheduled tasks of the tip bot.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/nanotipbot/internal/database"
)

// PendingCounter reports the size of the settlement backlog.
type PendingCounter interface {
	Pending(ctx context.Context) (int, error)
}

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger      *slog.Logger
	Store       database.Store
	Queue       PendingCounter
	BacklogWarn int
}
