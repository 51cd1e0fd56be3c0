package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nanotipbot/internal/tipping"
)

// Sender is the part of *bot.Bot used to deliver messages.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// Notifier sends replies into chats and direct messages to users.
type Notifier struct {
	Bot Sender
}

// Reply answers msg in its chat, quoting it when it still exists.
func (n Notifier) Reply(ctx context.Context, msg *tipping.Message, text string) error {
	params := &bot.SendMessageParams{ChatID: msg.Chat.ChatID, Text: text}
	if id, ok := messageNumber(msg.ID); ok {
		params.ReplyParameters = &models.ReplyParameters{MessageID: id, AllowSendingWithoutReply: true}
	}
	if _, err := n.Bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram reply: %w", err)
	}
	return nil
}

func (n Notifier) DirectMessage(ctx context.Context, recipientID, text string) error {
	chatID, err := userChat(recipientID)
	if err != nil {
		return err
	}
	if _, err := n.Bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("failed to send telegram direct message: %w", err)
	}
	return nil
}

// DirectMessageWithImage sends image as a photo captioned with text.
func (n Notifier) DirectMessageWithImage(ctx context.Context, recipientID string, image []byte, text string) error {
	chatID, err := userChat(recipientID)
	if err != nil {
		return err
	}
	_, err = n.Bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: recipientID + ".png", Data: bytes.NewReader(image)},
		Caption: text,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram photo: %w", err)
	}
	return nil
}

// userChat converts a user id to the id of the private chat with that user.
func userChat(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram user id %q: %w", userID, err)
	}
	return id, nil
}
