package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Lookups return nil, nil when the row does not exist.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	// GetUser retrieves a user by platform user id.
	GetUser(ctx context.Context, userID, platform string) (*User, error)

	// CreateUser inserts a user. An existing (user_id, platform) row is left untouched and
	// reported through the returned bool.
	CreateUser(ctx context.Context, user *User) (bool, error)

	// MarkRegistered sets the register flag of a user. It is idempotent.
	MarkRegistered(ctx context.Context, userID, platform string) error

	// UpsertChatMember records a member of a chat. A changed member name is applied to
	// every chat the member belongs to.
	UpsertChatMember(ctx context.Context, member *ChatMember) error

	// FindChatMemberByName looks a member up by name, case-insensitively, within a chat.
	FindChatMemberByName(ctx context.Context, chatID int64, name string) (*ChatMember, error)

	// FindChatMemberByID looks a member up by platform user id within a chat.
	FindChatMemberByID(ctx context.Context, chatID int64, memberID string) (*ChatMember, error)

	// SaveTipInstruction stores an instruction and its recipients in one transaction. A
	// second instruction for the same (platform, source_message_id) is ignored and
	// reported through the returned bool.
	SaveTipInstruction(ctx context.Context, instr *TipInstruction, recipients []TipRecipient) (bool, error)

	// GetTipInstruction retrieves an instruction and its recipients by source message.
	GetTipInstruction(ctx context.Context, platform, sourceMessageID string) (*TipInstruction, []TipRecipient, error)

	// CountTipInstructions counts the instructions in a status.
	CountTipInstructions(ctx context.Context, status string) (int, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed", "error", err)
	}

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

func (s *sqlxStore) GetUser(ctx context.Context, userID, platform string) (*User, error) {
	if userID == "" || platform == "" {
		return nil, fmt.Errorf("user_id and platform are required")
	}

	var user User
	query := `SELECT id, created_at, updated_at, user_id, platform, user_name, account, register
	          FROM users WHERE user_id = ? AND platform = ?`

	err := s.db.GetContext(ctx, &user, query, userID, platform)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "user_id", userID, "platform", platform)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user",
			"user_id", userID, "platform", platform, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "user_id", userID, "platform", platform, "error", err)
		return nil, fmt.Errorf("failed to get user %s on %s: %w", userID, platform, err)
	}

	return &user, nil
}

func (s *sqlxStore) CreateUser(ctx context.Context, user *User) (bool, error) {
	if user == nil {
		return false, fmt.Errorf("cannot save nil user")
	}
	if user.UserID == "" || user.Platform == "" || user.Account == "" {
		return false, fmt.Errorf("user must have user_id, platform and account")
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (user_id, platform, user_name, account, register, created_at, updated_at)
		VALUES (:user_id, :platform, :user_name, :account, :register, :created_at, :updated_at)
		ON CONFLICT (user_id, platform) DO NOTHING
	`
	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating user", "user_id", user.UserID, "platform", user.Platform, "error", err)
		return false, fmt.Errorf("failed to create user %s on %s: %w", user.UserID, user.Platform, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		s.logger.DebugContext(ctx, "User already exists", "user_id", user.UserID, "platform", user.Platform)
		return false, nil
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // ids are positive and far below MaxUint
		user.ID = uint(id)
	}
	s.logger.InfoContext(ctx, "User created", "user_id", user.UserID, "platform", user.Platform)
	return true, nil
}

func (s *sqlxStore) MarkRegistered(ctx context.Context, userID, platform string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET register = 1, updated_at = ? WHERE user_id = ? AND platform = ? AND register = 0`,
		time.Now().UTC(), userID, platform)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking user registered", "user_id", userID, "platform", platform, "error", err)
		return fmt.Errorf("failed to mark user %s on %s registered: %w", userID, platform, err)
	}
	return nil
}

func (s *sqlxStore) UpsertChatMember(ctx context.Context, member *ChatMember) error {
	if member == nil {
		return fmt.Errorf("cannot save nil chat member")
	}
	if member.ChatID == 0 || member.MemberID == "" || member.MemberName == "" {
		return fmt.Errorf("chat member must have chat_id, member_id and member_name")
	}

	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for chat member upsert",
			"chat_id", member.ChatID, "member_id", member.MemberID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	upsert := `
		INSERT INTO telegram_chat_members (chat_id, chat_name, member_id, member_name, created_at, updated_at)
		VALUES (:chat_id, :chat_name, :member_id, :member_name, :created_at, :updated_at)
		ON CONFLICT (chat_id, member_id) DO UPDATE SET
			chat_name   = excluded.chat_name,
			member_name = excluded.member_name,
			updated_at  = excluded.updated_at
	`
	if _, err := tx.NamedExecContext(ctx, upsert, member); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting chat member",
			"chat_id", member.ChatID, "member_id", member.MemberID, "error", err)
		return fmt.Errorf("failed to upsert chat member %s in chat %d: %w", member.MemberID, member.ChatID, err)
	}

	renamed, err := tx.ExecContext(ctx,
		`UPDATE telegram_chat_members SET member_name = ?, updated_at = ? WHERE member_id = ? AND member_name <> ?`,
		member.MemberName, now, member.MemberID, member.MemberName)
	if err != nil {
		return fmt.Errorf("failed to propagate name of member %s: %w", member.MemberID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "member_id", member.MemberID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if n, err := renamed.RowsAffected(); err == nil && n > 0 {
		s.logger.InfoContext(ctx, "Chat member renamed", "member_id", member.MemberID, "member_name", member.MemberName, "chats", n)
	}
	return nil
}

func (s *sqlxStore) FindChatMemberByName(ctx context.Context, chatID int64, name string) (*ChatMember, error) {
	return s.findChatMember(ctx,
		`SELECT id, created_at, updated_at, chat_id, chat_name, member_id, member_name
		 FROM telegram_chat_members WHERE chat_id = ? AND member_name = ? COLLATE NOCASE
		 ORDER BY updated_at DESC LIMIT 1`,
		chatID, name)
}

func (s *sqlxStore) FindChatMemberByID(ctx context.Context, chatID int64, memberID string) (*ChatMember, error) {
	return s.findChatMember(ctx,
		`SELECT id, created_at, updated_at, chat_id, chat_name, member_id, member_name
		 FROM telegram_chat_members WHERE chat_id = ? AND member_id = ?`,
		chatID, memberID)
}

func (s *sqlxStore) findChatMember(ctx context.Context, query string, chatID int64, key string) (*ChatMember, error) {
	if chatID == 0 || key == "" {
		return nil, fmt.Errorf("chat_id and member key are required")
	}

	var member ChatMember
	err := s.db.GetContext(ctx, &member, query, chatID, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No chat member found", "chat_id", chatID, "key", key)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching chat member",
			"chat_id", chatID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting chat member", "chat_id", chatID, "key", key, "error", err)
		return nil, fmt.Errorf("failed to get chat member %q in chat %d: %w", key, chatID, err)
	}

	return &member, nil
}

func (s *sqlxStore) SaveTipInstruction(ctx context.Context, instr *TipInstruction, recipients []TipRecipient) (bool, error) {
	if instr == nil {
		return false, fmt.Errorf("cannot save nil tip instruction")
	}
	if len(recipients) == 0 {
		return false, fmt.Errorf("tip instruction %s has no recipients", instr.ID)
	}
	if instr.Status == "" {
		instr.Status = TipStatusPending
	}
	if instr.CreatedAt.IsZero() {
		instr.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for tip instruction", "instruction_id", instr.ID, "error", err)
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	insert := `
		INSERT INTO tip_instructions (
			id, platform, source_message_id, sender_id, sender_account,
			amount, per_recipient_raw, total_raw, status, created_at
		) VALUES (
			:id, :platform, :source_message_id, :sender_id, :sender_account,
			:amount, :per_recipient_raw, :total_raw, :status, :created_at
		)
		ON CONFLICT (platform, source_message_id) DO NOTHING
	`
	result, err := tx.NamedExecContext(ctx, insert, instr)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving tip instruction", "instruction_id", instr.ID, "error", err)
		return false, fmt.Errorf("failed to save tip instruction %s: %w", instr.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		s.logger.InfoContext(ctx, "Duplicate tip instruction ignored",
			"platform", instr.Platform, "source_message_id", instr.SourceMessageID)
		return false, nil
	}

	for i := range recipients {
		recipients[i].InstructionID = instr.ID
		recipients[i].Position = i
	}
	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO tip_recipients (instruction_id, position, recipient_id, display_name)
		 VALUES (:instruction_id, :position, :recipient_id, :display_name)`,
		recipients)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving tip recipients", "instruction_id", instr.ID, "error", err)
		return false, fmt.Errorf("failed to save recipients of tip instruction %s: %w", instr.ID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "instruction_id", instr.ID, "error", err)
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Tip instruction saved", "instruction_id", instr.ID, "recipients", len(recipients))
	return true, nil
}

func (s *sqlxStore) GetTipInstruction(ctx context.Context, platform, sourceMessageID string) (*TipInstruction, []TipRecipient, error) {
	var instr TipInstruction
	err := s.db.GetContext(ctx, &instr,
		`SELECT id, platform, source_message_id, sender_id, sender_account,
		        amount, per_recipient_raw, total_raw, status, created_at
		 FROM tip_instructions WHERE platform = ? AND source_message_id = ?`,
		platform, sourceMessageID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("failed to get tip instruction for %s message %s: %w", platform, sourceMessageID, err)
	}

	var recipients []TipRecipient
	err = s.db.SelectContext(ctx, &recipients,
		`SELECT instruction_id, position, recipient_id, display_name
		 FROM tip_recipients WHERE instruction_id = ? ORDER BY position`,
		instr.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get recipients of tip instruction %s: %w", instr.ID, err)
	}

	return &instr, recipients, nil
}

func (s *sqlxStore) CountTipInstructions(ctx context.Context, status string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tip_instructions WHERE status = ?`, status); err != nil {
		return 0, fmt.Errorf("failed to count %s tip instructions: %w", status, err)
	}
	return n, nil
}
