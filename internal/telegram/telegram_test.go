package telegram

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/tipping"
)

var (
	_ tipping.ChatDirectory = ChatDirectory{}
	_ tipping.Notifier      = Notifier{}
	_ Sender                = (*bot.Bot)(nil)
	_ WebhookSetter         = (*bot.Bot)(nil)
)

const testBotID = 999

func TestNormalizeMessage(t *testing.T) {
	t.Parallel()

	group := models.Chat{ID: -42, Type: models.ChatTypeSupergroup, Title: "nano fans"}
	carol := &models.User{ID: 33, FirstName: "Carol", Username: "Carol"}

	tests := []struct {
		name        string
		msg         *models.Message
		wantTokens  []string
		wantIgnored bool
		wantReply   *tipping.Member
		wantEntity  []tipping.Member
	}{
		{
			name:       "text",
			msg:        &models.Message{ID: 77, Chat: group, From: carol, Text: "!TIP 5 @Alice\n@bob"},
			wantTokens: []string{"!tip", "5", "@alice", "@bob"},
		},
		{
			name:       "caption",
			msg:        &models.Message{ID: 77, Chat: group, From: carol, Caption: "!tip 1 @alice"},
			wantTokens: []string{"!tip", "1", "@alice"},
		},
		{
			name: "reply to a member",
			msg: &models.Message{
				ID: 77, Chat: group, From: carol, Text: "!tip 2",
				ReplyToMessage: &models.Message{ID: 70, Chat: group, From: &models.User{ID: 11, FirstName: "Alice"}},
			},
			wantTokens: []string{"!tip", "2"},
			wantReply:  &tipping.Member{ID: "11", FirstName: "Alice"},
		},
		{
			name: "reply to a bot",
			msg: &models.Message{
				ID: 77, Chat: group, From: carol, Text: "!tip 2",
				ReplyToMessage: &models.Message{ID: 70, Chat: group, From: &models.User{ID: testBotID, IsBot: true}},
			},
			wantTokens: []string{"!tip", "2"},
		},
		{
			name: "text mention entities",
			msg: &models.Message{
				ID: 77, Chat: group, From: carol, Text: "!tip 1 Alice Bob",
				Entities: []models.MessageEntity{
					{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: 4},
					{Type: models.MessageEntityTypeTextMention, Offset: 7, Length: 5, User: &models.User{ID: 11, FirstName: "Alice"}},
					{Type: models.MessageEntityTypeTextMention, Offset: 13, Length: 3},
					{Type: models.MessageEntityTypeTextMention, Offset: 13, Length: 3, User: &models.User{ID: 22, FirstName: "Bob"}},
				},
			},
			wantTokens: []string{"!tip", "1", "alice", "bob"},
			wantEntity: []tipping.Member{{ID: "11", FirstName: "Alice"}, {ID: "22", FirstName: "Bob"}},
		},
		{
			name:        "forward",
			msg:         &models.Message{ID: 77, Chat: group, From: carol, Text: "!tip 1 @alice", ForwardOrigin: &models.MessageOrigin{}},
			wantTokens:  []string{"!tip", "1", "@alice"},
			wantIgnored: true,
		},
		{
			name:        "from the bot",
			msg:         &models.Message{ID: 77, Chat: group, From: &models.User{ID: testBotID, IsBot: true}, Text: "!tip 1 @alice"},
			wantTokens:  []string{"!tip", "1", "@alice"},
			wantIgnored: true,
		},
		{
			name:        "no sender",
			msg:         &models.Message{ID: 77, Chat: group, Text: "!tip 1 @alice"},
			wantTokens:  []string{"!tip", "1", "@alice"},
			wantIgnored: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeMessage(tt.msg, testBotID)

			if got.Platform != tipping.PlatformTelegram || got.ID != "-42:77" {
				t.Errorf("Platform, ID = %s, %s", got.Platform, got.ID)
			}
			if got.Chat.ChatID != -42 || got.Chat.ChatName != "nano fans" {
				t.Errorf("Chat = %+v", got.Chat)
			}
			if !slices.Equal(got.Tokens, tt.wantTokens) {
				t.Errorf("Tokens = %v, want %v", got.Tokens, tt.wantTokens)
			}
			if got.Ignored != tt.wantIgnored {
				t.Errorf("Ignored = %v, want %v", got.Ignored, tt.wantIgnored)
			}
			switch {
			case tt.wantReply == nil && got.Chat.ReplyTarget != nil:
				t.Errorf("ReplyTarget = %+v, want nil", got.Chat.ReplyTarget)
			case tt.wantReply != nil && (got.Chat.ReplyTarget == nil || *got.Chat.ReplyTarget != *tt.wantReply):
				t.Errorf("ReplyTarget = %+v, want %+v", got.Chat.ReplyTarget, tt.wantReply)
			}
			if !slices.Equal(got.Chat.EntityMentions, tt.wantEntity) {
				t.Errorf("EntityMentions = %+v, want %+v", got.Chat.EntityMentions, tt.wantEntity)
			}
			if tt.msg.From != nil && !tt.wantIgnored {
				if got.SenderID != "33" || got.SenderHandle != "carol" || got.SenderName != "Carol" {
					t.Errorf("sender = %s %s %s", got.SenderID, got.SenderHandle, got.SenderName)
				}
			}
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	if got := ChatName(models.Chat{Title: "nano fans", Username: "nanofans"}); got != "nano fans" {
		t.Errorf("ChatName(group) = %q", got)
	}
	if got := ChatName(models.Chat{FirstName: "Carol"}); got != "Carol" {
		t.Errorf("ChatName(private) = %q", got)
	}
	if got := MemberName(&models.User{FirstName: "Carol", Username: "carol_n"}); got != "carol_n" {
		t.Errorf("MemberName(with username) = %q", got)
	}
	if got := MemberName(&models.User{FirstName: "Carol"}); got != "Carol" {
		t.Errorf("MemberName(without username) = %q", got)
	}
}

type fakeSender struct {
	messages []*bot.SendMessageParams
	photos   []*bot.SendPhotoParams
	images   [][]byte
	err      error
}

func (s *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.messages = append(s.messages, p)
	return &models.Message{ID: 1}, nil
}

func (s *fakeSender) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.photos = append(s.photos, p)
	if upload, ok := p.Photo.(*models.InputFileUpload); ok {
		data, _ := io.ReadAll(upload.Data)
		s.images = append(s.images, data)
	}
	return &models.Message{ID: 2}, nil
}

func TestNotifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sender := &fakeSender{}
	n := Notifier{Bot: sender}

	msg := &tipping.Message{ID: MessageID(-42, 77), Chat: tipping.ChatContext{ChatID: -42}}
	if err := n.Reply(ctx, msg, "not found"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	reply := sender.messages[0]
	if reply.ChatID != int64(-42) || reply.Text != "not found" {
		t.Errorf("reply = %+v", reply)
	}
	if reply.ReplyParameters == nil || reply.ReplyParameters.MessageID != 77 {
		t.Errorf("reply parameters = %+v, want message 77", reply.ReplyParameters)
	}

	if err := n.DirectMessage(ctx, "33", "nano_1abc"); err != nil {
		t.Fatalf("DirectMessage() error = %v", err)
	}
	if dm := sender.messages[1]; dm.ChatID != int64(33) || dm.Text != "nano_1abc" || dm.ReplyParameters != nil {
		t.Errorf("direct message = %+v", dm)
	}

	if err := n.DirectMessageWithImage(ctx, "33", []byte("png"), "Your account:"); err != nil {
		t.Fatalf("DirectMessageWithImage() error = %v", err)
	}
	photo := sender.photos[0]
	if photo.ChatID != int64(33) || photo.Caption != "Your account:" || string(sender.images[0]) != "png" {
		t.Errorf("photo = %+v, data %q", photo, sender.images[0])
	}

	if err := n.DirectMessage(ctx, "@carol", "hi"); err == nil {
		t.Error("DirectMessage() to a non numeric id should fail")
	}

	errSend := errors.New("bot was blocked by the user")
	n = Notifier{Bot: &fakeSender{err: errSend}}
	if err := n.DirectMessage(ctx, "33", "hi"); !errors.Is(err, errSend) {
		t.Errorf("DirectMessage() error = %v, want %v", err, errSend)
	}
}

func TestChatDirectory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "tg.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)
	if err := store.UpsertChatMember(ctx, &database.ChatMember{ChatID: -42, ChatName: "nano fans", MemberID: "11", MemberName: "Alice"}); err != nil {
		t.Fatal(err)
	}

	dir := ChatDirectory{DB: store}
	want := tipping.Recipient{ID: "11", DisplayName: "Alice"}

	if r, err := dir.ResolveByName(ctx, -42, "alice"); err != nil || r != want {
		t.Errorf("ResolveByName() = %+v, %v", r, err)
	}
	if r, err := dir.ResolveByMemberID(ctx, -42, "11"); err != nil || r != want {
		t.Errorf("ResolveByMemberID() = %+v, %v", r, err)
	}
	if _, err := dir.ResolveByName(ctx, -7, "alice"); !errors.Is(err, tipping.ErrNotFound) {
		t.Errorf("ResolveByName() in another chat error = %v, want ErrNotFound", err)
	}
	if _, err := dir.ResolveByMemberID(ctx, -42, "22"); !errors.Is(err, tipping.ErrNotFound) {
		t.Errorf("ResolveByMemberID() unknown error = %v, want ErrNotFound", err)
	}
}

type fakeWebhookSetter struct {
	params *bot.SetWebhookParams
	ok     bool
	err    error
}

func (f *fakeWebhookSetter) SetWebhook(_ context.Context, p *bot.SetWebhookParams) (bool, error) {
	f.params = p
	return f.ok, f.err
}

func TestRegisterWebhook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setter := &fakeWebhookSetter{ok: true}
	if err := RegisterWebhook(ctx, setter, "https://tips.example.com/telegram/abc", "s3cret"); err != nil {
		t.Fatalf("RegisterWebhook() error = %v", err)
	}
	if setter.params.URL != "https://tips.example.com/telegram/abc" || setter.params.SecretToken != "s3cret" {
		t.Errorf("SetWebhook params = %+v", setter.params)
	}

	if err := RegisterWebhook(ctx, &fakeWebhookSetter{}, "https://x", ""); err == nil {
		t.Error("RegisterWebhook() should fail when Telegram answers false")
	}
	errAPI := errors.New("bad webhook")
	if err := RegisterWebhook(ctx, &fakeWebhookSetter{err: errAPI}, "https://x", ""); !errors.Is(err, errAPI) {
		t.Errorf("RegisterWebhook() error = %v, want %v", err, errAPI)
	}
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := NewTelegramBot("", nil); err == nil {
		t.Error("NewTelegramBot() with an empty token should fail")
	}
}
