// Package settlement queues validated tip instructions for the settlement worker.
package settlement

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// Queue persists instructions in the tip_instructions table with status pending. It is
// idempotent per source message, so a redelivered webhook never queues a tip twice.
type Queue struct {
	db     database.Store
	logger *slog.Logger
}

func NewQueue(db database.Store, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Queue{db: db, logger: logger.With("component", "settlement_queue")}
}

// Submit implements tipping.Sink.
func (q *Queue) Submit(ctx context.Context, instr tipping.TipInstruction) error {
	row := &database.TipInstruction{
		ID:              instr.ID,
		Platform:        string(instr.Platform),
		SourceMessageID: instr.SourceMessageID,
		SenderID:        instr.SenderID,
		SenderAccount:   instr.SenderAccount,
		Amount:          instr.Amount.String(),
		PerRecipientRaw: instr.PerRecipientRaw.String(),
		TotalRaw:        instr.TotalRaw.String(),
		Status:          database.TipStatusPending,
		CreatedAt:       instr.CreatedAt,
	}
	recipients := make([]database.TipRecipient, len(instr.Recipients))
	for i, r := range instr.Recipients {
		recipients[i] = database.TipRecipient{RecipientID: r.ID, DisplayName: r.DisplayName}
	}

	saved, err := q.db.SaveTipInstruction(ctx, row, recipients)
	if err != nil {
		return fmt.Errorf("failed to queue tip instruction: %w", err)
	}
	if saved {
		q.logger.InfoContext(ctx, "Tip instruction queued",
			"instruction_id", instr.ID, "platform", instr.Platform,
			"recipients", len(recipients), "total_raw", row.TotalRaw)
	}
	return nil
}

// Pending reports how many instructions wait for settlement.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	return q.db.CountTipInstructions(ctx, database.TipStatusPending)
}
