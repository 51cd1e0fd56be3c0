package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

func newTestStore(t *testing.T) (Store, *sqlx.DB) {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "tips.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil), db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()
	_, db := newTestStore(t)

	if err := ApplyMigrations(db.DB, "tips.db"); err != nil {
		t.Fatalf("second ApplyMigrations() error = %v", err)
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetUser(ctx, "300", "twitter")
	if err != nil || got != nil {
		t.Fatalf("GetUser() on empty table = %v, %v; want nil, nil", got, err)
	}

	created, err := store.CreateUser(ctx, &User{UserID: "300", Platform: "twitter", UserName: "carol", Account: "nano_carol"})
	if err != nil || !created {
		t.Fatalf("CreateUser() = %v, %v", created, err)
	}
	created, err = store.CreateUser(ctx, &User{UserID: "300", Platform: "twitter", Account: "nano_other"})
	if err != nil || created {
		t.Fatalf("second CreateUser() = %v, %v; want false, nil", created, err)
	}

	got, err = store.GetUser(ctx, "300", "twitter")
	if err != nil || got == nil {
		t.Fatalf("GetUser() = %v, %v", got, err)
	}
	if got.Account != "nano_carol" || got.Register {
		t.Errorf("user = %+v, want first account and not registered", got)
	}

	if other, _ := store.GetUser(ctx, "300", "telegram"); other != nil {
		t.Error("users must be scoped by platform")
	}

	for range 2 {
		if err := store.MarkRegistered(ctx, "300", "twitter"); err != nil {
			t.Fatalf("MarkRegistered() error = %v", err)
		}
	}
	got, _ = store.GetUser(ctx, "300", "twitter")
	if !got.Register {
		t.Error("register flag not set")
	}
}

func TestChatMembers(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	members := []ChatMember{
		{ChatID: -42, ChatName: "nano fans", MemberID: "11", MemberName: "Alice"},
		{ChatID: -42, ChatName: "nano fans", MemberID: "22", MemberName: "bob"},
		{ChatID: -7, ChatName: "other", MemberID: "11", MemberName: "Alice"},
	}
	for i := range members {
		if err := store.UpsertChatMember(ctx, &members[i]); err != nil {
			t.Fatalf("UpsertChatMember(%+v) error = %v", members[i], err)
		}
	}

	m, err := store.FindChatMemberByName(ctx, -42, "alice")
	if err != nil || m == nil || m.MemberID != "11" {
		t.Fatalf("FindChatMemberByName(alice) = %+v, %v", m, err)
	}
	if m, _ := store.FindChatMemberByName(ctx, -7, "bob"); m != nil {
		t.Error("member of another chat resolved")
	}
	if m, _ := store.FindChatMemberByID(ctx, -42, "22"); m == nil || m.MemberName != "bob" {
		t.Errorf("FindChatMemberByID(22) = %+v", m)
	}
	if m, err := store.FindChatMemberByID(ctx, -42, "99"); m != nil || err != nil {
		t.Errorf("FindChatMemberByID(99) = %+v, %v; want nil, nil", m, err)
	}

	// A rename seen in chat -42 is applied to chat -7 as well.
	if err := store.UpsertChatMember(ctx, &ChatMember{ChatID: -42, ChatName: "nano fans", MemberID: "11", MemberName: "alicia"}); err != nil {
		t.Fatalf("rename upsert error = %v", err)
	}
	for _, chatID := range []int64{-42, -7} {
		m, err := store.FindChatMemberByID(ctx, chatID, "11")
		if err != nil || m == nil || m.MemberName != "alicia" {
			t.Errorf("chat %d member 11 = %+v, %v; want renamed", chatID, m, err)
		}
	}
	if m, _ := store.FindChatMemberByName(ctx, -42, "alice"); m != nil {
		t.Error("old name still resolves")
	}

	if err := store.UpsertChatMember(ctx, &ChatMember{ChatID: -42, MemberID: "33"}); err == nil {
		t.Error("expected an error for a member without a name")
	}
}

func TestTipInstructions(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	instr := &TipInstruction{
		ID:              "instr-1",
		Platform:        "twitter",
		SourceMessageID: "1500",
		SenderID:        "300",
		SenderAccount:   "nano_carol",
		Amount:          "5",
		PerRecipientRaw: "5000000000000000000000000000000",
		TotalRaw:        "10000000000000000000000000000000",
	}
	recipients := []TipRecipient{
		{RecipientID: "100", DisplayName: "Alice"},
		{RecipientID: "200", DisplayName: "Bob"},
	}

	saved, err := store.SaveTipInstruction(ctx, instr, recipients)
	if err != nil || !saved {
		t.Fatalf("SaveTipInstruction() = %v, %v", saved, err)
	}

	dup := *instr
	dup.ID = "instr-2"
	saved, err = store.SaveTipInstruction(ctx, &dup, []TipRecipient{{RecipientID: "100"}})
	if err != nil || saved {
		t.Fatalf("duplicate SaveTipInstruction() = %v, %v; want false, nil", saved, err)
	}

	got, gotRecipients, err := store.GetTipInstruction(ctx, "twitter", "1500")
	if err != nil || got == nil {
		t.Fatalf("GetTipInstruction() = %v, %v", got, err)
	}
	if got.ID != "instr-1" || got.Status != TipStatusPending || got.TotalRaw != instr.TotalRaw {
		t.Errorf("instruction = %+v", got)
	}
	if len(gotRecipients) != 2 || gotRecipients[0].RecipientID != "100" || gotRecipients[1].Position != 1 {
		t.Errorf("recipients = %+v", gotRecipients)
	}

	if got, _, err := store.GetTipInstruction(ctx, "telegram", "1500"); got != nil || err != nil {
		t.Errorf("GetTipInstruction(telegram) = %v, %v; want nil, nil", got, err)
	}

	if _, err := store.SaveTipInstruction(ctx, &TipInstruction{ID: "x", Platform: "twitter", SourceMessageID: "9"}, nil); err == nil {
		t.Error("expected an error for an instruction without recipients")
	}

	if n, err := store.CountTipInstructions(ctx, TipStatusPending); err != nil || n != 1 {
		t.Errorf("CountTipInstructions(pending) = %d, %v; want 1", n, err)
	}
	if n, err := store.CountTipInstructions(ctx, TipStatusSettled); err != nil || n != 0 {
		t.Errorf("CountTipInstructions(settled) = %d, %v; want 0", n, err)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.RunSQLMaintenance(ctx); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"tips.db":                    "tips.db",
		"file:tips.db":               "tips.db",
		"file:tips.db?mode=rwc":      "tips.db",
		"/var/lib/tip%20bot/tips.db": "/var/lib/tip bot/tips.db",
	}
	for in, want := range tests {
		if got := ExtractDBNameFromPath(in); got != want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
