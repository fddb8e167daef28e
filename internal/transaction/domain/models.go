package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of a processed bank transfer.
type Status string

const (
	// StatusReceived is the dedup reservation before classification.
	StatusReceived Status = "received"

	// Classification outcomes.
	StatusMatched        Status = "matched"
	StatusNotMatch       Status = "not_match"
	StatusMultiple       Status = "multiple"
	StatusAmountMismatch Status = "amount_mismatch"
	StatusNotFound       Status = "not_found"

	// Confirmation outcomes, reachable only from matched.
	StatusConfirmed Status = "confirmed"
	StatusReported  Status = "reported"
	StatusCanceled  Status = "canceled"

	// StatusError is the sink for unrecoverable internal failures.
	StatusError Status = "error"
)

// Resolved reports whether the confirmation workflow already ran to
// completion for this status.
func (s Status) Resolved() bool {
	switch s {
	case StatusConfirmed, StatusReported, StatusCanceled:
		return true
	default:
		return false
	}
}

// Transaction is the audit record of one bank-transfer notification. One row
// exists per upstream transaction id; rows are never deleted.
type Transaction struct {
	ID               snowflake.ID    `json:"id" gorm:"primaryKey"`
	TransactionID    string          `json:"transaction_id" gorm:"type:text;not null;uniqueIndex:ux_payment_transactions_trx_id"`
	InvoiceNumber    *string         `json:"invoice_number" gorm:"type:text"`
	Candidates       datatypes.JSON  `json:"candidates" gorm:"type:jsonb"`
	MatchedOrderID   *int64          `json:"matched_order_id"`
	MatchedOrderName string          `json:"matched_order_name" gorm:"type:text"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Counterpart      string          `json:"counterpart" gorm:"type:text"`
	Content          string          `json:"content" gorm:"type:text"`
	Status           Status          `json:"status" gorm:"type:text;not null;index"`
	NotifyChannel    string          `json:"notify_channel" gorm:"type:text"`
	NotifyTS         string          `json:"notify_ts" gorm:"type:text"`
	ConfirmedBy      string          `json:"confirmed_by" gorm:"type:text"`
	ErrorDetail      string          `json:"error_detail" gorm:"type:text"`
	RawPayload       datatypes.JSON  `json:"raw_payload" gorm:"type:jsonb"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null"`
}

func (Transaction) TableName() string { return "payment_transactions" }

// Classification is the matching result folded back onto the row.
type Classification struct {
	Status           Status
	InvoiceNumber    *string
	Candidates       []string
	MatchedOrderID   *int64
	MatchedOrderName string
}

// ListFilter narrows the audit listing.
type ListFilter struct {
	Status Status
	Limit  int
}

var ErrNotFound = errors.New("transaction_not_found")
