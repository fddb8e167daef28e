package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// Reserve inserts the row if the transaction id is unseen. The insert
	// carries the full pending row, so reservation and persistence are one
	// atomic write. Returns false when the id already exists.
	Reserve(ctx context.Context, db *gorm.DB, tx *Transaction) (bool, error)

	FindByTransactionID(ctx context.Context, db *gorm.DB, trxID string) (*Transaction, error)

	UpdateClassification(ctx context.Context, db *gorm.DB, trxID string, c Classification, updatedAt time.Time) error

	BindNotification(ctx context.Context, db *gorm.DB, trxID, channel, ts string, updatedAt time.Time) error

	MarkError(ctx context.Context, db *gorm.DB, trxID, detail string, updatedAt time.Time) error

	// TransitionFromMatched applies a confirmation-phase transition guarded
	// on the current status still being matched. Returns false when the
	// guard did not hold (already resolved, or never matched).
	TransitionFromMatched(ctx context.Context, db *gorm.DB, trxID string, to Status, actor string, updatedAt time.Time) (bool, error)

	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Transaction, error)
}
