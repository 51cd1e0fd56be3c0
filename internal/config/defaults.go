package config

import (
	"time"

	"github.com/edgard/nanotipbot/internal/tipping"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultServerAddr            = ":8080"
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultDBPath = "tipbot.db"

	DefaultTipCommand      = "!tip"
	DefaultTipMinTip       = "0.000001"
	DefaultTipUnitExponent = 30 // 1 NANO = 10^30 raw
	DefaultTipCurrency     = "NANO"
	DefaultTipCallTimeout  = 20 * time.Second
	DefaultTipReplyTimeout = 10 * time.Second
	DefaultTipQRDir        = "qr"

	DefaultTwitterAPIURL         = "https://api.twitter.com"
	DefaultTwitterUploadURL      = "https://upload.twitter.com"
	DefaultTwitterRequestTimeout = 15 * time.Second

	DefaultNanoNodeURL        = "http://127.0.0.1:7076"
	DefaultNanoRequestTimeout = 15 * time.Second
	DefaultNanoReceiveLimit   = 50
	DefaultNanoMaxFailures    = 5
	DefaultNanoOpenTimeout    = 30 * time.Second
	DefaultNanoRetryAttempts  = 3
	DefaultNanoRetryDelay     = 200 * time.Millisecond

	DefaultSQLMaintenanceSchedule    = "0 0 4 * * *" // daily at 04:00:00
	DefaultSettlementBacklogSchedule = "0 */15 * * * *"
	DefaultSettlementBacklogWarn     = 100
)

// DefaultWelcome answers /start in a private chat.
const DefaultWelcome = "Hi! I move NANO between chat members. Tip someone with !tip 1 @username, " +
	"or reply to their message with !tip 1. Send me !register to get your account."

// DefaultHelp answers /help. "@botname" is replaced with the bot's username.
const DefaultHelp = "Tip a member: @botname !tip 1 @username (several names share the amount each). " +
	"Reply to a message with @botname !tip 1 to tip its author. " +
	"Send me !register in private to get your deposit account."

// DefaultAccountIntro introduces the deposit address sent on registration.
const DefaultAccountIntro = "Your tip bot account is ready. Send NANO to the address below to fund your tips; " +
	"the next message contains only the address so it is easy to copy."

// setDefaults registers every key so that environment overrides reach Unmarshal.
func setDefaults(v viperSetter) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("tip.command", DefaultTipCommand)
	v.SetDefault("tip.min_tip", DefaultTipMinTip)
	v.SetDefault("tip.unit_exponent", DefaultTipUnitExponent)
	v.SetDefault("tip.currency", DefaultTipCurrency)
	v.SetDefault("tip.call_timeout", DefaultTipCallTimeout)
	v.SetDefault("tip.reply_timeout", DefaultTipReplyTimeout)
	v.SetDefault("tip.qr_dir", DefaultTipQRDir)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.bot_username", "")
	v.SetDefault("telegram.webhook_uri", "")
	v.SetDefault("telegram.webhook_secret", "")

	v.SetDefault("twitter.enabled", false)
	v.SetDefault("twitter.api_url", DefaultTwitterAPIURL)
	v.SetDefault("twitter.upload_url", DefaultTwitterUploadURL)
	v.SetDefault("twitter.access_token", "")
	v.SetDefault("twitter.consumer_secret", "")
	v.SetDefault("twitter.bot_id", "")
	v.SetDefault("twitter.bot_handle", "")
	v.SetDefault("twitter.request_timeout", DefaultTwitterRequestTimeout)

	v.SetDefault("nano.node_url", DefaultNanoNodeURL)
	v.SetDefault("nano.wallet_id", "")
	v.SetDefault("nano.request_timeout", DefaultNanoRequestTimeout)
	v.SetDefault("nano.receive_limit", DefaultNanoReceiveLimit)
	v.SetDefault("nano.max_failures", DefaultNanoMaxFailures)
	v.SetDefault("nano.open_timeout", DefaultNanoOpenTimeout)
	v.SetDefault("nano.retry_attempts", DefaultNanoRetryAttempts)
	v.SetDefault("nano.retry_delay", DefaultNanoRetryDelay)

	v.SetDefault("scheduler.tasks", map[string]any{
		"sql_maintenance": map[string]any{
			"enabled":  true,
			"schedule": DefaultSQLMaintenanceSchedule,
		},
		"settlement_backlog": map[string]any{
			"enabled":  true,
			"schedule": DefaultSettlementBacklogSchedule,
		},
	})
	v.SetDefault("scheduler.backlog_warn", DefaultSettlementBacklogWarn)

	m := tipping.DefaultMessages
	v.SetDefault("messages.not_a_number", m.NotANumber)
	v.SetDefault("messages.too_precise", m.TooPrecise)
	v.SetDefault("messages.too_large", m.TooLarge)
	v.SetDefault("messages.below_minimum", m.BelowMinimum)
	v.SetDefault("messages.member_not_found", m.MemberNotFound)
	v.SetDefault("messages.handle_not_found", m.HandleNotFound)
	v.SetDefault("messages.no_account", m.NoAccount)
	v.SetDefault("messages.insufficient_funds", m.InsufficientFunds)
	v.SetDefault("messages.try_again", m.TryAgain)
	v.SetDefault("messages.account_intro", DefaultAccountIntro)
	v.SetDefault("messages.welcome", DefaultWelcome)
	v.SetDefault("messages.help", DefaultHelp)
}

type viperSetter interface {
	SetDefault(key string, value any)
}
