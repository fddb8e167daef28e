package domain

import (
	"context"
	"errors"
)

// Callback is one verified button press from the review message.
type Callback struct {
	TransactionID string
	ActionID      string
	UserID        string
	Username      string
	Channel       string
	MessageTS     string
}

// Service handles the human confirmation half of the workflow.
type Service interface {
	// Ingest verifies the interactivity signature and parses the callback.
	// Synchronous; the chat platform expects an answer within seconds.
	Ingest(ctx context.Context, body []byte, timestamp, signature string) (Callback, error)

	// Process applies the pressed action to the transaction. Runs after the
	// acknowledgement; every failure path is absorbed into logs and the
	// follow-up notification.
	Process(ctx context.Context, cb Callback)
}

var (
	ErrInvalidSignature = errors.New("invalid_action_signature")
	ErrInvalidPayload   = errors.New("invalid_action_payload")
	ErrUnknownAction    = errors.New("unknown_action")
)
