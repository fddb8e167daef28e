package notify

import (
	"context"
	"errors"

	txdomain "github.com/openbanc/bankrecon/internal/transaction/domain"
)

// Action ids carried by the review message buttons. Each button's value is
// the transaction id, never the transaction itself; the callback re-fetches
// authoritative state from the store.
const (
	ActionConfirm = "confirm_payment"
	ActionReport  = "report_error"
	ActionCancel  = "cancel_payment"
)

// Ref identifies a dispatched review message so it can later be edited or
// removed.
type Ref struct {
	Channel string
	TS      string
}

// Notifier dispatches and resolves interactive review messages.
type Notifier interface {
	// PostReview sends the confirmation request for a matched transaction
	// and returns a reference to the message.
	PostReview(ctx context.Context, tx *txdomain.Transaction) (Ref, error)

	// Resolve removes the original review message and posts a follow-up
	// describing the outcome.
	Resolve(ctx context.Context, ref Ref, text string) error

	// Notice posts a plain follow-up in the given channel.
	Notice(ctx context.Context, channel, text string) error
}

var ErrNotConfigured = errors.New("notifier_not_configured")
