// Package twitter connects the tip pipeline to Twitter: a REST client for user lookups,
// replies, direct messages and media uploads, and the account activity webhook that
// feeds mentions and direct messages to the bot.
package twitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/edgard/nanotipbot/internal/config"
)

// ErrUserNotFound is returned by UserByUsername for unknown or suspended accounts.
var ErrUserNotFound = errors.New("twitter user not found")

// User is the subset of a Twitter user object the bot needs.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// apiProblem is one entry of the "errors" array of a v2 response.
type apiProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

func (p apiProblem) notFound() bool {
	return strings.HasSuffix(p.Type, "/resource-not-found") || p.Title == "Not Found Error"
}

// APIError is a non-2xx answer of the Twitter API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter api returned status %d: %s", e.Status, e.Detail)
}

// Client calls the Twitter v2 API with a user-context bearer token, and the v1.1 upload
// endpoint for media.
type Client struct {
	api    *resty.Client
	upload *resty.Client
	logger *slog.Logger
}

// NewClient creates a client from the twitter config section.
func NewClient(cfg config.TwitterConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	newResty := func(baseURL string) *resty.Client {
		return resty.New().
			SetBaseURL(baseURL).
			SetTimeout(cfg.RequestTimeout).
			SetAuthToken(cfg.AccessToken)
	}
	return &Client{
		api:    newResty(cfg.APIURL),
		upload: newResty(cfg.UploadURL),
		logger: logger.With("component", "twitter_client"),
	}
}

func apiError(resp *resty.Response) error {
	detail := strings.TrimSpace(string(resp.Body()))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return &APIError{Status: resp.StatusCode(), Detail: detail}
}

// UserByUsername looks up a user by screen name, without the leading "@".
func (c *Client) UserByUsername(ctx context.Context, username string) (User, error) {
	var out struct {
		Data   *User        `json:"data"`
		Errors []apiProblem `json:"errors"`
	}
	resp, err := c.api.R().
		SetContext(ctx).
		SetPathParam("username", username).
		SetResult(&out).
		Get("/2/users/by/username/{username}")
	if err != nil {
		return User{}, fmt.Errorf("twitter user lookup failed: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return User{}, ErrUserNotFound
	}
	if resp.IsError() {
		return User{}, apiError(resp)
	}
	if out.Data == nil {
		// Unknown users come back as 200 with a resource-not-found problem.
		for _, p := range out.Errors {
			if p.notFound() {
				return User{}, ErrUserNotFound
			}
		}
		return User{}, fmt.Errorf("twitter user lookup for %q returned no data", username)
	}
	return *out.Data, nil
}

// PostReply posts text as a reply to the tweet inReplyTo and returns the new tweet id.
func (c *Client) PostReply(ctx context.Context, inReplyTo, text string) (string, error) {
	body := map[string]any{
		"text":  text,
		"reply": map[string]string{"in_reply_to_tweet_id": inReplyTo},
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/2/tweets")
	if err != nil {
		return "", fmt.Errorf("twitter reply failed: %w", err)
	}
	if resp.IsError() {
		return "", apiError(resp)
	}
	return out.Data.ID, nil
}

// SendDirectMessage sends text to participantID, attaching mediaID when not empty.
func (c *Client) SendDirectMessage(ctx context.Context, participantID, text, mediaID string) error {
	body := map[string]any{"text": text}
	if mediaID != "" {
		body["attachments"] = []map[string]string{{"media_id": mediaID}}
	}
	resp, err := c.api.R().
		SetContext(ctx).
		SetPathParam("participant", participantID).
		SetBody(body).
		Post("/2/dm_conversations/with/{participant}/messages")
	if err != nil {
		return fmt.Errorf("twitter direct message failed: %w", err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// UploadMedia uploads a PNG for use in a direct message and returns its media id.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte) (string, error) {
	var out struct {
		MediaID string `json:"media_id_string"`
	}
	resp, err := c.upload.R().
		SetContext(ctx).
		SetFileReader("media", filename, bytes.NewReader(data)).
		SetFormData(map[string]string{"media_category": "dm_image"}).
		SetResult(&out).
		Post("/1.1/media/upload.json")
	if err != nil {
		return "", fmt.Errorf("twitter media upload failed: %w", err)
	}
	if resp.IsError() {
		return "", apiError(resp)
	}
	if out.MediaID == "" {
		return "", fmt.Errorf("twitter media upload returned no media id")
	}
	c.logger.DebugContext(ctx, "Media uploaded", "media_id", out.MediaID, "bytes", len(data))
	return out.MediaID, nil
}
