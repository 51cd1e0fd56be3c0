package telegram

import (
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/nanotipbot/internal/tipping"
)

// MessageID identifies a message across chats. Telegram message ids are only unique
// within their chat.
func MessageID(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

// messageNumber recovers the in-chat message id from a MessageID.
func messageNumber(id string) (int, bool) {
	i := strings.LastIndexByte(id, ':')
	n, err := strconv.Atoi(id[i+1:])
	return n, err == nil
}

// Text returns the message text, or the caption for media messages, with the entities
// that belong to it.
func Text(m *models.Message) (string, []models.MessageEntity) {
	if m.Text != "" {
		return m.Text, m.Entities
	}
	return m.Caption, m.CaptionEntities
}

// ChatName is the title of a group, or the name of the other party of a private chat.
func ChatName(c models.Chat) string {
	switch {
	case c.Title != "":
		return c.Title
	case c.Username != "":
		return c.Username
	default:
		return c.FirstName
	}
}

// MemberName is the name a user is known by in the chat member directory: the username
// when set, the first name otherwise.
func MemberName(u *models.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// NormalizeMessage turns a Telegram message into a pipeline message. Forwards and
// messages sent by bots, the tip bot included, are marked ignored.
func NormalizeMessage(m *models.Message, botID int64) tipping.Message {
	text, entities := Text(m)
	msg := tipping.Message{
		Platform: tipping.PlatformTelegram,
		ID:       MessageID(m.Chat.ID, m.ID),
		Tokens:   tipping.Tokenize(text),
		Chat: tipping.ChatContext{
			ChatID:   m.Chat.ID,
			ChatName: ChatName(m.Chat),
		},
	}

	if m.From == nil {
		msg.Ignored = true
		return msg
	}
	msg.SenderID = strconv.FormatInt(m.From.ID, 10)
	msg.SenderHandle = strings.ToLower(m.From.Username)
	msg.SenderName = m.From.FirstName
	msg.Ignored = m.From.IsBot || m.From.ID == botID || m.ForwardOrigin != nil

	if r := m.ReplyToMessage; r != nil && r.From != nil && !r.From.IsBot {
		msg.Chat.ReplyTarget = &tipping.Member{
			ID:        strconv.FormatInt(r.From.ID, 10),
			FirstName: r.From.FirstName,
		}
	}

	for _, e := range entities {
		if e.Type != models.MessageEntityTypeTextMention || e.User == nil {
			continue
		}
		msg.Chat.EntityMentions = append(msg.Chat.EntityMentions, tipping.Member{
			ID:        strconv.FormatInt(e.User.ID, 10),
			FirstName: e.User.FirstName,
		})
	}

	return msg
}
