package twitter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/edgard/nanotipbot/internal/account"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// SignatureHeader carries the HMAC of a webhook delivery.
const SignatureHeader = "x-twitter-webhooks-signature"

// TipHandler runs a message through the tip pipeline.
type TipHandler interface {
	Handle(ctx context.Context, msg *tipping.Message) tipping.Outcome
}

// Registrar creates accounts for users who ask for one.
type Registrar interface {
	Register(ctx context.Context, platform tipping.Platform, userID, userName string) error
}

// Sign returns "sha256=" followed by the base64 HMAC-SHA256 of payload keyed by secret,
// the format of both CRC responses and delivery signatures.
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// WebhookHandler serves the account activity webhook.
type WebhookHandler struct {
	secret    []byte
	botID     string
	tips      TipHandler
	registrar Registrar
	logger    *slog.Logger
}

func NewWebhookHandler(consumerSecret, botID string, tips TipHandler, registrar Registrar, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WebhookHandler{
		secret:    []byte(consumerSecret),
		botID:     botID,
		tips:      tips,
		registrar: registrar,
		logger:    logger.With("component", "twitter_webhook"),
	}
}

// Routes mounts the CRC check and the event receiver on g.
func (h *WebhookHandler) Routes(g *gin.RouterGroup) {
	g.GET("/webhook", h.CRC)
	g.POST("/webhook", h.Events)
}

// CRC answers the challenge Twitter sends when the webhook is registered and hourly
// afterwards.
func (h *WebhookHandler) CRC(c *gin.Context) {
	token := c.Query("crc_token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing crc_token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response_token": Sign(h.secret, []byte(token))})
}

// Events verifies and processes one delivery.
func (h *WebhookHandler) Events(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	want := Sign(h.secret, body)
	if !hmac.Equal([]byte(want), []byte(c.GetHeader(SignatureHeader))) {
		h.logger.WarnContext(c.Request.Context(), "Webhook delivery with a bad signature rejected")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var ev ActivityEvent
	// The raw body was needed for the signature, so it is bound from bytes.
	if err := binding.JSON.BindBody(body, &ev); err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	for _, t := range ev.TweetCreateEvents {
		msg := NormalizeTweet(t, h.botID)
		out := h.tips.Handle(ctx, &msg)
		h.logger.DebugContext(ctx, "Tweet processed", "tweet_id", t.IDStr, "status", out.Status.String(), "stage", out.Stage.String())
	}
	for _, dm := range ev.DirectMessageEvents {
		h.handleDirectMessage(ctx, dm, ev.Users)
	}

	c.Status(http.StatusOK)
}

func (h *WebhookHandler) handleDirectMessage(ctx context.Context, dm DirectMessageEvent, users map[string]ActivityUser) {
	sender := dm.MessageCreate.SenderID
	if dm.Type != "message_create" || sender == "" || sender == h.botID {
		return
	}
	if !account.IsRegisterCommand(tipping.Tokenize(dm.MessageCreate.MessageData.Text)) {
		return
	}

	if err := h.registrar.Register(ctx, tipping.PlatformTwitter, sender, users[sender].ScreenName); err != nil {
		h.logger.ErrorContext(ctx, "Registration from direct message failed", "sender_id", sender, "error", err)
	}
}
