package account

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/tipping"
)

// Creator creates deposit accounts on the node.
type Creator interface {
	CreateAccount(ctx context.Context) (string, error)
}

// Registrar handles !register: it creates the user's account when missing and sends the
// account message, a QR code with the intro text followed by the bare address.
type Registrar struct {
	db        database.Store
	node      Creator
	qr        QRCache
	notifiers map[tipping.Platform]tipping.Notifier
	intro     string
	timeout   time.Duration
	logger    *slog.Logger
}

// RegistrarDeps groups the collaborators of a Registrar.
type RegistrarDeps struct {
	DB        database.Store
	Node      Creator
	QR        QRCache
	Notifiers map[tipping.Platform]tipping.Notifier
	Intro     string
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewRegistrar(deps RegistrarDeps) *Registrar {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registrar{
		db:        deps.DB,
		node:      deps.Node,
		qr:        deps.QR,
		notifiers: deps.Notifiers,
		intro:     deps.Intro,
		timeout:   deps.Timeout,
		logger:    logger.With("component", "registrar"),
	}
}

// Register makes sure the user has a registered account and sends them its address.
func (r *Registrar) Register(ctx context.Context, platform tipping.Platform, userID, userName string) error {
	notifier, ok := r.notifiers[platform]
	if !ok {
		return fmt.Errorf("no notifier for platform %s", platform)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	address, err := r.ensureAccount(ctx, platform, userID, userName)
	if err != nil {
		return err
	}

	png, err := r.qr.PNG(userID, string(platform), address)
	if err != nil {
		return err
	}
	if err := notifier.DirectMessageWithImage(ctx, userID, png, r.intro); err != nil {
		return fmt.Errorf("failed to send account message: %w", err)
	}
	if err := notifier.DirectMessage(ctx, userID, address); err != nil {
		return fmt.Errorf("failed to send account address: %w", err)
	}
	return nil
}

func (r *Registrar) ensureAccount(ctx context.Context, platform tipping.Platform, userID, userName string) (string, error) {
	user, err := r.db.GetUser(ctx, userID, string(platform))
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if user != nil {
		if !user.Register {
			if err := r.db.MarkRegistered(ctx, userID, string(platform)); err != nil {
				return "", fmt.Errorf("failed to mark user registered: %w", err)
			}
			r.logger.InfoContext(ctx, "Existing account registered", "user_id", userID, "platform", platform)
		}
		return user.Account, nil
	}

	address, err := r.node.CreateAccount(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create account: %w", err)
	}
	created, err := r.db.CreateUser(ctx, &database.User{
		UserID:   userID,
		Platform: string(platform),
		UserName: userName,
		Account:  address,
		Register: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store account: %w", err)
	}
	if !created {
		// A concurrent !register won; use the stored account.
		user, err := r.db.GetUser(ctx, userID, string(platform))
		if err != nil || user == nil {
			return "", fmt.Errorf("failed to reload user after concurrent registration: %w", err)
		}
		return user.Account, nil
	}

	r.logger.InfoContext(ctx, "User registered", "user_id", userID, "platform", platform)
	return address, nil
}
