package domain

import (
	"context"
	"errors"
)

// IngestResult is the outcome of the synchronous webhook phase. The response
// to the bank gateway is built from this alone; classification happens after
// the acknowledgement.
type IngestResult struct {
	TransactionID string
	Duplicate     bool
}

// Service is the reconciliation engine for incoming bank transfers.
type Service interface {
	// Ingest verifies the body signature, parses the payload and reserves
	// the transaction id. Cheap and synchronous; it never talks to the
	// order system or the chat workspace.
	Ingest(ctx context.Context, body []byte, signature string) (IngestResult, error)

	// Reconcile classifies a previously reserved transaction: candidate
	// extraction, order lookup, amount check, and the review notification
	// for a unique match. Failures are folded into the row's status, never
	// returned, since nothing upstream is waiting anymore.
	Reconcile(ctx context.Context, trxID string)
}

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
)
