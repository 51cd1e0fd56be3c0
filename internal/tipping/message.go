// Package tipping interprets tip commands found in chat messages and turns them into
// validated tip instructions. It knows nothing about the platforms it serves: adapters
// normalize their payloads into a Message and provide the directory, account, node and
// notification collaborators declared in deps.go.
package tipping

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Platform identifies the messaging network a message came from.
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformTelegram Platform = "telegram"
)

// Member is a chat participant as seen in platform metadata (reply targets, entities).
type Member struct {
	ID        string
	FirstName string
}

// ChatContext carries the addressing details only chat-style platforms provide.
type ChatContext struct {
	ChatID         int64
	ChatName       string
	ReplyTarget    *Member
	EntityMentions []Member
}

// Message is the platform-agnostic unit of work flowing through the pipeline.
// Tokens are lower-cased and must not be modified after normalization.
type Message struct {
	Platform     Platform
	ID           string
	Tokens       []string
	SenderID     string
	SenderHandle string
	SenderName   string
	Chat         ChatContext

	// Ignored marks messages the normalizer already discarded
	// (posts by the bot itself, retweets, forwards).
	Ignored bool
}

// Recipient is the canonical directory identity of a tip target.
type Recipient struct {
	ID          string
	DisplayName string
}

// Account is the sender's settlement account as recorded in the account store.
type Account struct {
	Address    string
	Registered bool
}

// TipInstruction is the validated output of the pipeline. It is built once every
// validation stage succeeded and is never mutated afterwards.
type TipInstruction struct {
	ID              string
	Platform        Platform
	SourceMessageID string
	SenderID        string
	SenderAccount   string
	Recipients      []Recipient
	Amount          decimal.Decimal
	PerRecipientRaw decimal.Decimal
	TotalRaw        decimal.Decimal
	CreatedAt       time.Time
}

// TotalAmount is the display amount debited from the sender.
func (t TipInstruction) TotalAmount() decimal.Decimal {
	return t.Amount.Mul(decimal.NewFromInt(int64(len(t.Recipients))))
}

// Tokenize lower-cases text and splits it on any whitespace, newlines included.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
