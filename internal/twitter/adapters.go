package twitter

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/edgard/nanotipbot/internal/tipping"
)

// screenName matches what Twitter accepts as a username. Anything else cannot exist, so
// the lookup is skipped.
var screenName = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

// Directory resolves mentions through the users API.
type Directory struct {
	Client *Client
}

func (d Directory) ResolveByHandle(ctx context.Context, handle string) (tipping.Recipient, error) {
	if !screenName.MatchString(handle) {
		return tipping.Recipient{}, tipping.ErrNotFound
	}
	u, err := d.Client.UserByUsername(ctx, handle)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return tipping.Recipient{}, tipping.ErrNotFound
	case err != nil:
		return tipping.Recipient{}, err
	}
	return tipping.Recipient{ID: u.ID, DisplayName: u.Username}, nil
}

// Notifier replies to tweets and sends direct messages.
type Notifier struct {
	Client *Client
}

// Reply answers the source tweet, addressing its author.
func (n Notifier) Reply(ctx context.Context, msg *tipping.Message, text string) error {
	_, err := n.Client.PostReply(ctx, msg.ID, fmt.Sprintf("@%s %s", msg.SenderHandle, text))
	return err
}

func (n Notifier) DirectMessage(ctx context.Context, recipientID, text string) error {
	return n.Client.SendDirectMessage(ctx, recipientID, text, "")
}

// DirectMessageWithImage uploads image as a PNG and attaches it to the message.
func (n Notifier) DirectMessageWithImage(ctx context.Context, recipientID string, image []byte, text string) error {
	mediaID, err := n.Client.UploadMedia(ctx, recipientID+".png", image)
	if err != nil {
		return err
	}
	return n.Client.SendDirectMessage(ctx, recipientID, text, mediaID)
}
