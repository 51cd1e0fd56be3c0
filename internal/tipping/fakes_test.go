package tipping

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var errBoom = errors.New("connection reset by peer")

type fakeHandleDirectory struct {
	mu    sync.Mutex
	users map[string]Recipient
	err   error
	calls []string
}

func (d *fakeHandleDirectory) ResolveByHandle(_ context.Context, handle string) (Recipient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, handle)
	if d.err != nil {
		return Recipient{}, d.err
	}
	r, ok := d.users[strings.ToLower(handle)]
	if !ok {
		return Recipient{}, ErrNotFound
	}
	return r, nil
}

func (d *fakeHandleDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type chatMember struct {
	chatID int64
	id     string
	name   string
}

type fakeChatDirectory struct {
	members []chatMember
	err     error
	calls   int
}

func (d *fakeChatDirectory) ResolveByName(_ context.Context, chatID int64, name string) (Recipient, error) {
	d.calls++
	if d.err != nil {
		return Recipient{}, d.err
	}
	for _, m := range d.members {
		if m.chatID == chatID && strings.EqualFold(m.name, name) {
			return Recipient{ID: m.id, DisplayName: m.name}, nil
		}
	}
	return Recipient{}, ErrNotFound
}

func (d *fakeChatDirectory) ResolveByMemberID(_ context.Context, chatID int64, memberID string) (Recipient, error) {
	d.calls++
	if d.err != nil {
		return Recipient{}, d.err
	}
	for _, m := range d.members {
		if m.chatID == chatID && m.id == memberID {
			return Recipient{ID: m.id, DisplayName: m.name}, nil
		}
	}
	return Recipient{}, ErrNotFound
}

type fakeAccounts struct {
	accounts      map[string]Account
	err           error
	registerCalls int
}

func (a *fakeAccounts) GetAccount(_ context.Context, userID string, platform Platform) (Account, error) {
	if a.err != nil {
		return Account{}, a.err
	}
	acct, ok := a.accounts[string(platform)+":"+userID]
	if !ok {
		return Account{}, ErrNoAccount
	}
	return acct, nil
}

func (a *fakeAccounts) SetRegistered(_ context.Context, userID string, platform Platform) error {
	a.registerCalls++
	key := string(platform) + ":" + userID
	acct := a.accounts[key]
	acct.Registered = true
	a.accounts[key] = acct
	return nil
}

type fakeNode struct {
	balances     map[string]decimal.Decimal
	collectErr   error
	balanceErr   error
	collected    []string
	balanceCalls int
}

func (n *fakeNode) CollectPending(_ context.Context, account string) error {
	n.collected = append(n.collected, account)
	return n.collectErr
}

func (n *fakeNode) BalanceRaw(_ context.Context, account string) (decimal.Decimal, error) {
	n.balanceCalls++
	if n.balanceErr != nil {
		return decimal.Zero, n.balanceErr
	}
	return n.balances[account], nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	replies []string
}

func (n *fakeNotifier) Reply(_ context.Context, _ *Message, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies = append(n.replies, text)
	return nil
}

func (n *fakeNotifier) DirectMessage(context.Context, string, string) error { return nil }

func (n *fakeNotifier) DirectMessageWithImage(context.Context, string, []byte, string) error {
	return nil
}

type fakeSink struct {
	mu           sync.Mutex
	instructions []TipInstruction
	err          error
}

func (s *fakeSink) Submit(_ context.Context, instr TipInstruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.instructions = append(s.instructions, instr)
	return nil
}

// nano converts a display amount to raw units with the default exponent.
func nano(amount string) decimal.Decimal {
	return decimal.RequireFromString(amount).Mul(decimal.New(1, 30))
}

type harness struct {
	twitterDir *fakeHandleDirectory
	chatDir    *fakeChatDirectory
	accounts   *fakeAccounts
	node       *fakeNode
	notifier   *fakeNotifier
	sink       *fakeSink
	pipeline   *Pipeline
}

func newHarness() *harness {
	h := &harness{
		twitterDir: &fakeHandleDirectory{users: map[string]Recipient{
			"alice": {ID: "100", DisplayName: "Alice"},
			"bob":   {ID: "200", DisplayName: "Bob"},
			"carol": {ID: "300", DisplayName: "carol"},
		}},
		chatDir: &fakeChatDirectory{members: []chatMember{
			{chatID: -42, id: "11", name: "alice"},
			{chatID: -42, id: "22", name: "bob"},
			{chatID: -42, id: "33", name: "carol"},
			{chatID: -7, id: "44", name: "dave"},
		}},
		accounts: &fakeAccounts{accounts: map[string]Account{
			"twitter:300":  {Address: "nano_carol", Registered: true},
			"telegram:33":  {Address: "nano_carol_tg", Registered: false},
			"twitter:400":  {Address: "nano_poor", Registered: true},
			"telegram:999": {Address: "nano_other", Registered: true},
		}},
		node: &fakeNode{balances: map[string]decimal.Decimal{
			"nano_carol":    nano("100"),
			"nano_carol_tg": nano("100"),
			"nano_poor":     nano("3"),
		}},
		notifier: &fakeNotifier{},
		sink:     &fakeSink{},
	}

	cfg := Config{
		Command:      "!tip",
		MinTip:       decimal.NewFromInt(1),
		UnitExponent: 30,
		Currency:     "NANO",
		Messages:     DefaultMessages,
		Platforms: map[Platform]PlatformRules{
			PlatformTwitter: {
				BotHandle:  "nanotipbot",
				Recipients: HandleSource{Directory: h.twitterDir, BotHandle: "nanotipbot"},
			},
			PlatformTelegram: {
				BotHandle:         "nanotipbot",
				RequireBotMention: true,
				Recipients:        NewChatSource(h.chatDir, "nanotipbot"),
			},
		},
	}

	p, err := NewPipeline(cfg, Deps{
		Accounts: h.accounts,
		Node:     h.node,
		Sink:     h.sink,
		Notifiers: map[Platform]Notifier{
			PlatformTwitter:  h.notifier,
			PlatformTelegram: h.notifier,
		},
	})
	if err != nil {
		panic(err)
	}
	seq := 0
	p.newID = func() string {
		seq++
		return "instr-" + strconv.Itoa(seq)
	}
	h.pipeline = p
	return h
}

func tweet(tokens ...string) *Message {
	return &Message{
		Platform:     PlatformTwitter,
		ID:           "1500",
		Tokens:       tokens,
		SenderID:     "300",
		SenderHandle: "carol",
		SenderName:   "Carol",
	}
}

func groupMessage(tokens ...string) *Message {
	return &Message{
		Platform:     PlatformTelegram,
		ID:           "77",
		Tokens:       tokens,
		SenderID:     "33",
		SenderHandle: "carol",
		SenderName:   "Carol",
		Chat:         ChatContext{ChatID: -42, ChatName: "nano fans"},
	}
}
