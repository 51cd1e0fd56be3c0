package twitter

import (
	"strings"

	"github.com/edgard/nanotipbot/internal/tipping"
)

// ActivityEvent is an account activity webhook delivery. Only the event kinds the bot
// reacts to are decoded.
type ActivityEvent struct {
	ForUserID           string                  `json:"for_user_id"`
	TweetCreateEvents   []Tweet                 `json:"tweet_create_events"`
	DirectMessageEvents []DirectMessageEvent    `json:"direct_message_events"`
	Users               map[string]ActivityUser `json:"users"`
}

// Tweet is a v1.1 tweet object as delivered by the webhook.
type Tweet struct {
	IDStr           string         `json:"id_str"`
	Text            string         `json:"text"`
	Truncated       bool           `json:"truncated"`
	ExtendedTweet   *ExtendedTweet `json:"extended_tweet"`
	RetweetedStatus *Tweet         `json:"retweeted_status"`
	User            TweetUser      `json:"user"`
}

type ExtendedTweet struct {
	FullText string `json:"full_text"`
}

type TweetUser struct {
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

type DirectMessageEvent struct {
	Type          string        `json:"type"`
	ID            string        `json:"id"`
	MessageCreate MessageCreate `json:"message_create"`
}

type MessageCreate struct {
	SenderID    string `json:"sender_id"`
	MessageData struct {
		Text string `json:"text"`
	} `json:"message_data"`
}

type ActivityUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// NormalizeTweet turns a tweet into a pipeline message. Tweets by the bot and retweets
// are marked ignored.
func NormalizeTweet(t Tweet, botID string) tipping.Message {
	text := t.Text
	if t.Truncated && t.ExtendedTweet != nil && t.ExtendedTweet.FullText != "" {
		text = t.ExtendedTweet.FullText
	}

	return tipping.Message{
		Platform:     tipping.PlatformTwitter,
		ID:           t.IDStr,
		Tokens:       tipping.Tokenize(text),
		SenderID:     t.User.IDStr,
		SenderHandle: strings.ToLower(t.User.ScreenName),
		SenderName:   t.User.Name,
		Ignored:      t.User.IDStr == botID || t.RetweetedStatus != nil,
	}
}
