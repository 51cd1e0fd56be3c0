package tipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// recipientSet keeps recipients in order of first mention and drops repeated ids.
// The sender's id is pre-seeded so a sender can never tip themselves.
type recipientSet struct {
	seen map[string]struct{}
	list []Recipient
}

func newRecipientSet(senderID string) *recipientSet {
	s := &recipientSet{seen: make(map[string]struct{})}
	if senderID != "" {
		s.seen[senderID] = struct{}{}
	}
	return s
}

func (s *recipientSet) add(r Recipient) bool {
	if _, dup := s.seen[r.ID]; dup {
		return false
	}
	s.seen[r.ID] = struct{}{}
	s.list = append(s.list, r)
	return true
}

func memberName(m Member) string {
	if m.FirstName == "" {
		return "That user"
	}
	return m.FirstName
}

type lookupFunc func(ctx context.Context, name string) (Recipient, error)

// resolveScan runs the token scan and resolves every mention it yields. The first
// unknown mention aborts the scan; the caller must then discard the set.
func resolveScan(ctx context.Context, msg *Message, cmd Command, botHandle string, chatMember bool, set *recipientSet, lookup lookupFunc) error {
	for mention := range ScanMentions(tokensAfterAmount(msg, cmd), msg.SenderHandle, botHandle) {
		r, err := lookup(ctx, strings.TrimPrefix(mention, mentionSigil))
		switch {
		case errors.Is(err, ErrNotFound):
			return &UnresolvedError{Name: mention, ChatMember: chatMember}
		case err != nil:
			return fmt.Errorf("failed to resolve mention: %w", err)
		}
		set.add(r)
	}
	return nil
}

// HandleSource resolves mentions through a remote handle directory. It serves
// broadcast platforms that carry no reply or entity metadata.
type HandleSource struct {
	Directory HandleDirectory
	BotHandle string
}

func (s HandleSource) Resolve(ctx context.Context, msg *Message, cmd Command) ([]Recipient, error) {
	set := newRecipientSet(msg.SenderID)
	if err := resolveScan(ctx, msg, cmd, s.BotHandle, false, set, s.Directory.ResolveByHandle); err != nil {
		return nil, err
	}
	return set.list, nil
}

// ReplyTargetSource tips the author of the message being replied to.
type ReplyTargetSource struct {
	Directory ChatDirectory
}

func (s ReplyTargetSource) Resolve(ctx context.Context, msg *Message, _ Command) ([]Recipient, error) {
	target := msg.Chat.ReplyTarget
	if target == nil || target.ID == "" {
		return nil, nil
	}

	r, err := s.Directory.ResolveByMemberID(ctx, msg.Chat.ChatID, target.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, &UnresolvedError{Name: memberName(*target), ChatMember: true}
	case err != nil:
		return nil, fmt.Errorf("failed to resolve reply target: %w", err)
	}

	set := newRecipientSet(msg.SenderID)
	set.add(r)
	return set.list, nil
}

// ChatMentionSource resolves mentions by display name among the members of the chat and
// adds the members referenced by structured mention entities.
type ChatMentionSource struct {
	Directory ChatDirectory
	BotHandle string
}

func (s ChatMentionSource) Resolve(ctx context.Context, msg *Message, cmd Command) ([]Recipient, error) {
	chatID := msg.Chat.ChatID
	set := newRecipientSet(msg.SenderID)

	byName := func(ctx context.Context, name string) (Recipient, error) {
		return s.Directory.ResolveByName(ctx, chatID, name)
	}
	if err := resolveScan(ctx, msg, cmd, s.BotHandle, true, set, byName); err != nil {
		return nil, err
	}

	for _, m := range msg.Chat.EntityMentions {
		if m.ID == "" {
			continue
		}
		r, err := s.Directory.ResolveByMemberID(ctx, chatID, m.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, &UnresolvedError{Name: memberName(m), ChatMember: true}
		case err != nil:
			return nil, fmt.Errorf("failed to resolve mention entity: %w", err)
		}
		set.add(r)
	}

	return set.list, nil
}

// ChatSource picks the reply-target strategy for replies and the mention strategy
// otherwise.
type ChatSource struct {
	Reply    ReplyTargetSource
	Mentions ChatMentionSource
}

// NewChatSource builds the recipient source of a chat platform backed by dir.
func NewChatSource(dir ChatDirectory, botHandle string) ChatSource {
	return ChatSource{
		Reply:    ReplyTargetSource{Directory: dir},
		Mentions: ChatMentionSource{Directory: dir, BotHandle: botHandle},
	}
}

func (s ChatSource) Resolve(ctx context.Context, msg *Message, cmd Command) ([]Recipient, error) {
	if msg.Chat.ReplyTarget != nil {
		return s.Reply.Resolve(ctx, msg, cmd)
	}
	return s.Mentions.Resolve(ctx, msg, cmd)
}
