package tipping

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Messages holds the reply templates sent to senders. Templates with a %s verb receive
// the offending token, the minimum tip, the missing member or the attempted total.
type Messages struct {
	NotANumber        string
	TooPrecise        string
	TooLarge          string
	BelowMinimum      string
	MemberNotFound    string
	HandleNotFound    string
	NoAccount         string
	InsufficientFunds string
	TryAgain          string
}

// DefaultMessages mirrors the wording users of the bot already know.
var DefaultMessages = Messages{
	NotANumber:        "Looks like the value you entered to tip (%s) was not a number. You can try to tip again using the format !tip 1234 @username",
	TooPrecise:        "The value you entered to tip (%s) has more decimal places than the smallest unit (%s) allows. Please round it and try again.",
	TooLarge:          "The value you entered to tip (%s) is far larger than any balance could hold. Please check the amount and try again.",
	BelowMinimum:      "The minimum tip amount is %s. Please update your tip amount and try again.",
	MemberNotFound:    "%s not found in our records. In order to tip them, they need to be a member of the channel. If they are in the channel, please have them send a message in the chat so I can add them.",
	HandleNotFound:    "I couldn't find the user %s. Please check the spelling and try again.",
	NoAccount:         "You do not have an account with the bot. Please send a DM to me with !register to set up an account.",
	InsufficientFunds: "You do not have enough to cover this %s tip. Please check your balance by sending a DM to me with !balance and retry.",
	TryAgain:          "Something went wrong while processing your tip. Please try again in a few minutes.",
}

// PlatformRules holds the addressing rules of one platform.
type PlatformRules struct {
	// BotHandle is the bot's own handle without the sigil, lower-cased.
	BotHandle string
	// RequireBotMention makes the command valid only when the bot is mentioned.
	RequireBotMention bool
	Recipients        RecipientSource
}

// Config is passed explicitly to the pipeline constructor.
type Config struct {
	Command      string
	MinTip       decimal.Decimal
	UnitExponent int32
	Currency     string
	CallTimeout  time.Duration
	ReplyTimeout time.Duration
	Messages     Messages
	Platforms    map[Platform]PlatformRules
}

// Validate checks the settings the pipeline cannot work without.
func (c Config) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("tip command literal cannot be empty")
	}
	if !c.MinTip.IsPositive() {
		return fmt.Errorf("minimum tip must be positive, got %s", c.MinTip)
	}
	if c.UnitExponent < 0 {
		return fmt.Errorf("unit exponent cannot be negative, got %d", c.UnitExponent)
	}
	for p, rules := range c.Platforms {
		if rules.Recipients == nil {
			return fmt.Errorf("platform %s has no recipient source", p)
		}
		if rules.RequireBotMention && rules.BotHandle == "" {
			return fmt.Errorf("platform %s requires a bot mention but has no bot handle", p)
		}
	}
	return nil
}

func (c Config) unitMultiplier() decimal.Decimal {
	return decimal.New(1, c.UnitExponent)
}

// smallestUnit is one raw unit in display units.
func (c Config) smallestUnit() decimal.Decimal {
	return decimal.New(1, -c.UnitExponent)
}

func (c Config) withCurrency(amount string) string {
	if c.Currency == "" {
		return amount
	}
	return amount + " " + c.Currency
}
