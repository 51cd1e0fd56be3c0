// Package config loads the tip bot configuration from config.yaml, a .env file and
// TIPBOT_* environment variables, and validates it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"github.com/edgard/nanotipbot/internal/tipping"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the root configuration of the bot.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Tip       TipConfig       `mapstructure:"tip"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Twitter   TwitterConfig   `mapstructure:"twitter"`
	Nano      NanoConfig      `mapstructure:"nano"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	BaseURL         string        `mapstructure:"base_url"         validate:"omitempty,url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=5m"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TipConfig holds the command settings shared by every platform.
type TipConfig struct {
	Command      string        `mapstructure:"command"       validate:"required"`
	MinTip       string        `mapstructure:"min_tip"       validate:"required,numeric"`
	UnitExponent int32         `mapstructure:"unit_exponent" validate:"min=0,max=38"`
	Currency     string        `mapstructure:"currency"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"  validate:"min=1s,max=5m"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout" validate:"min=1s,max=5m"`
	QRDir        string        `mapstructure:"qr_dir"        validate:"required"`
}

type TelegramConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Token         string `mapstructure:"token"          validate:"required_if=Enabled true"`
	BotUsername   string `mapstructure:"bot_username"   validate:"required_if=Enabled true"`
	WebhookURI    string `mapstructure:"webhook_uri"    validate:"required_if=Enabled true,omitempty,alphanum"`
	WebhookSecret string `mapstructure:"webhook_secret"`

	// BotInfo is filled from getMe at startup.
	BotInfo *models.User `mapstructure:"-"`
}

type TwitterConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	APIURL         string        `mapstructure:"api_url"         validate:"required_if=Enabled true,omitempty,url"`
	UploadURL      string        `mapstructure:"upload_url"      validate:"required_if=Enabled true,omitempty,url"`
	AccessToken    string        `mapstructure:"access_token"    validate:"required_if=Enabled true"`
	ConsumerSecret string        `mapstructure:"consumer_secret" validate:"required_if=Enabled true"`
	BotID          string        `mapstructure:"bot_id"          validate:"required_if=Enabled true"`
	BotHandle      string        `mapstructure:"bot_handle"      validate:"required_if=Enabled true"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
}

type NanoConfig struct {
	NodeURL        string        `mapstructure:"node_url"        validate:"required,url"`
	WalletID       string        `mapstructure:"wallet_id"       validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
	ReceiveLimit   int           `mapstructure:"receive_limit"   validate:"min=1,max=1000"`

	// Circuit breaker and retries around node calls.
	MaxFailures   uint32        `mapstructure:"max_failures"   validate:"min=1"`
	OpenTimeout   time.Duration `mapstructure:"open_timeout"   validate:"min=1s,max=10m"`
	RetryAttempts uint          `mapstructure:"retry_attempts" validate:"min=1,max=10"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"    validate:"max=30s"`
}

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`

	// BacklogWarn is the number of pending tip instructions above which the
	// settlement_backlog task logs a warning.
	BacklogWarn int `mapstructure:"backlog_warn" validate:"min=0"`
}

type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the texts sent back to users.
type MessagesConfig struct {
	NotANumber        string `mapstructure:"not_a_number"       validate:"required"`
	TooPrecise        string `mapstructure:"too_precise"        validate:"required"`
	TooLarge          string `mapstructure:"too_large"          validate:"required"`
	BelowMinimum      string `mapstructure:"below_minimum"      validate:"required"`
	MemberNotFound    string `mapstructure:"member_not_found"   validate:"required"`
	HandleNotFound    string `mapstructure:"handle_not_found"   validate:"required"`
	NoAccount         string `mapstructure:"no_account"         validate:"required"`
	InsufficientFunds string `mapstructure:"insufficient_funds" validate:"required"`
	TryAgain          string `mapstructure:"try_again"          validate:"required"`
	AccountIntro      string `mapstructure:"account_intro"      validate:"required"`
	Welcome           string `mapstructure:"welcome"            validate:"required"`
	Help              string `mapstructure:"help"               validate:"required"`
}

// Validate checks struct tags and the fields tags cannot express.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}
	if _, err := c.Tip.minTip(); err != nil {
		return err
	}
	if !c.Telegram.Enabled && !c.Twitter.Enabled {
		return errors.New("at least one of telegram or twitter must be enabled")
	}
	return nil
}

func (t TipConfig) minTip() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(t.MinTip)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tip.min_tip %q is not a decimal: %w", t.MinTip, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("tip.min_tip must be positive, got %s", t.MinTip)
	}
	return d, nil
}

// TippingConfig converts the loaded settings into the pipeline configuration.
// Platform rules are left empty; they need live directories and are added by the caller.
func (c *Config) TippingConfig() (tipping.Config, error) {
	minTip, err := c.Tip.minTip()
	if err != nil {
		return tipping.Config{}, err
	}
	return tipping.Config{
		Command:      c.Tip.Command,
		MinTip:       minTip,
		UnitExponent: c.Tip.UnitExponent,
		Currency:     c.Tip.Currency,
		CallTimeout:  c.Tip.CallTimeout,
		ReplyTimeout: c.Tip.ReplyTimeout,
		Messages: tipping.Messages{
			NotANumber:        c.Messages.NotANumber,
			TooPrecise:        c.Messages.TooPrecise,
			TooLarge:          c.Messages.TooLarge,
			BelowMinimum:      c.Messages.BelowMinimum,
			MemberNotFound:    c.Messages.MemberNotFound,
			HandleNotFound:    c.Messages.HandleNotFound,
			NoAccount:         c.Messages.NoAccount,
			InsufficientFunds: c.Messages.InsufficientFunds,
			TryAgain:          c.Messages.TryAgain,
		},
		Platforms: make(map[tipping.Platform]tipping.PlatformRules),
	}, nil
}
