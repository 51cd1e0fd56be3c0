package database

import (
	"time"
)

// User is a platform user and the deposit account the bot created for them.
// Register is set once the user has interacted with the bot after account creation.
type User struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID   string `db:"user_id"`
	Platform string `db:"platform"`
	UserName string `db:"user_name"`
	Account  string `db:"account"`
	Register bool   `db:"register"`
}

// ChatMember is a Telegram user the bot has seen speaking in a group chat.
// Recipients named in group tips must appear here.
type ChatMember struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID     int64  `db:"chat_id"`
	ChatName   string `db:"chat_name"`
	MemberID   string `db:"member_id"`
	MemberName string `db:"member_name"`
}

// Tip instruction statuses.
const (
	TipStatusPending = "pending"
	TipStatusSettled = "settled"
	TipStatusFailed  = "failed"
)

// TipInstruction is a validated tip waiting for settlement. Amounts are stored as decimal
// strings so no precision is lost in SQLite.
type TipInstruction struct {
	ID              string    `db:"id"`
	Platform        string    `db:"platform"`
	SourceMessageID string    `db:"source_message_id"`
	SenderID        string    `db:"sender_id"`
	SenderAccount   string    `db:"sender_account"`
	Amount          string    `db:"amount"`
	PerRecipientRaw string    `db:"per_recipient_raw"`
	TotalRaw        string    `db:"total_raw"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

// TipRecipient is one recipient of a TipInstruction, in order of first mention.
type TipRecipient struct {
	InstructionID string `db:"instruction_id"`
	Position      int    `db:"position"`
	RecipientID   string `db:"recipient_id"`
	DisplayName   string `db:"display_name"`
}
