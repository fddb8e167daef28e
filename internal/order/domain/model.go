package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Summary is the slice of an order the reconciliation flow cares about.
type Summary struct {
	ID            int64
	Name          string
	InvoiceNumber string
	AmountTotal   decimal.Decimal
}

// Query searches open sales orders in the order system.
type Query interface {
	// FindByCandidates returns orders whose declared invoice number is one
	// of candidates, or whose order name equals namePrefix+candidate.
	FindByCandidates(ctx context.Context, candidates []string, namePrefix string) ([]Summary, error)
}

// Writer appends audit information to an order.
type Writer interface {
	PostNote(ctx context.Context, orderID int64, body string) error
}

var (
	ErrNotConfigured = errors.New("order_system_not_configured")
	ErrUnavailable   = errors.New("order_system_unavailable")
)
