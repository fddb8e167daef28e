package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/openbanc/bankrecon/internal/transaction/domain"
	pkgdb "github.com/openbanc/bankrecon/pkg/db"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Reserve(ctx context.Context, db *gorm.DB, tx *domain.Transaction) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions (
			id, transaction_id, invoice_number, candidates, matched_order_id,
			matched_order_name, amount, counterpart, content, status,
			notify_channel, notify_ts, confirmed_by, error_detail, raw_payload,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transaction_id) DO NOTHING`,
		tx.ID,
		tx.TransactionID,
		tx.InvoiceNumber,
		tx.Candidates,
		tx.MatchedOrderID,
		tx.MatchedOrderName,
		tx.Amount,
		tx.Counterpart,
		tx.Content,
		tx.Status,
		tx.NotifyChannel,
		tx.NotifyTS,
		tx.ConfirmedBy,
		tx.ErrorDetail,
		tx.RawPayload,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if res.Error != nil {
		// Dialects without upsert support surface the race as a unique
		// violation instead of a zero row count.
		if pkgdb.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByTransactionID(ctx context.Context, db *gorm.DB, trxID string) (*domain.Transaction, error) {
	var item domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, transaction_id, invoice_number, candidates, matched_order_id,
			matched_order_name, amount, counterpart, content, status,
			notify_channel, notify_ts, confirmed_by, error_detail, raw_payload,
			created_at, updated_at
		 FROM payment_transactions
		 WHERE transaction_id = ?
		 LIMIT 1`,
		trxID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateClassification(ctx context.Context, db *gorm.DB, trxID string, c domain.Classification, updatedAt time.Time) error {
	candidates, err := json.Marshal(c.Candidates)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET status = ?, invoice_number = ?, candidates = ?,
			 matched_order_id = ?, matched_order_name = ?, updated_at = ?
		 WHERE transaction_id = ?`,
		c.Status,
		c.InvoiceNumber,
		candidates,
		c.MatchedOrderID,
		c.MatchedOrderName,
		updatedAt,
		trxID,
	).Error
}

func (r *repo) BindNotification(ctx context.Context, db *gorm.DB, trxID, channel, ts string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET notify_channel = ?, notify_ts = ?, updated_at = ?
		 WHERE transaction_id = ?`,
		channel,
		ts,
		updatedAt,
		trxID,
	).Error
}

func (r *repo) MarkError(ctx context.Context, db *gorm.DB, trxID, detail string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET status = ?, error_detail = ?, updated_at = ?
		 WHERE transaction_id = ?`,
		domain.StatusError,
		detail,
		updatedAt,
		trxID,
	).Error
}

func (r *repo) TransitionFromMatched(ctx context.Context, db *gorm.DB, trxID string, to domain.Status, actor string, updatedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET status = ?, confirmed_by = ?, updated_at = ?
		 WHERE transaction_id = ? AND status = ?`,
		to,
		actor,
		updatedAt,
		trxID,
		domain.StatusMatched,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT id, transaction_id, invoice_number, candidates, matched_order_id,
			matched_order_name, amount, counterpart, content, status,
			notify_channel, notify_ts, confirmed_by, error_detail, raw_payload,
			created_at, updated_at
		 FROM payment_transactions`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	var items []domain.Transaction
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
