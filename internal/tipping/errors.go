package tipping

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by directories when a handle or member id is unknown.
	ErrNotFound = errors.New("recipient not found")

	// ErrNoAccount is returned by the account store when the sender has no account.
	ErrNoAccount = errors.New("account not found")
)

// Kind classifies why a message did not produce a tip instruction.
type Kind int

const (
	KindNotACommand Kind = iota
	KindMalformedAmount
	KindBelowMinimum
	KindUnresolvedRecipient
	KindNoAccount
	KindInsufficientBalance
	KindExternalCallFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotACommand:
		return "not_a_command"
	case KindMalformedAmount:
		return "malformed_amount"
	case KindBelowMinimum:
		return "below_minimum"
	case KindUnresolvedRecipient:
		return "unresolved_recipient"
	case KindNoAccount:
		return "no_account"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindExternalCallFailure:
		return "external_call_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Rejection is the terminal negative outcome of a stage. Reason is safe to show to the
// sender; Cause holds the internal error for logging only.
type Rejection struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (r *Rejection) Error() string {
	if r.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", r.Kind, r.Reason, r.Cause)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Cause
}

func reject(kind Kind, reason string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason}
}

// asRejection returns the rejection carried by err. Unresolved recipients get the
// matching not-found wording; any other error becomes an ExternalCallFailure with the
// generic retry message.
func asRejection(err error, msgs Messages) *Rejection {
	var r *Rejection
	if errors.As(err, &r) {
		return r
	}
	var u *UnresolvedError
	if errors.As(err, &u) {
		tmpl := msgs.HandleNotFound
		if u.ChatMember {
			tmpl = msgs.MemberNotFound
		}
		return &Rejection{Kind: KindUnresolvedRecipient, Reason: fmt.Sprintf(tmpl, u.Name), Cause: err}
	}
	return &Rejection{Kind: KindExternalCallFailure, Reason: msgs.TryAgain, Cause: err}
}

// UnresolvedError reports a mention or chat member the directory does not know.
// ChatMember selects the chat-membership wording of the reply.
type UnresolvedError struct {
	Name       string
	ChatMember bool
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved recipient %q", e.Name)
}

func (e *UnresolvedError) Is(target error) bool {
	return target == ErrNotFound
}
