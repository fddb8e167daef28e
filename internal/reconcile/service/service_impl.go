package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbanc/bankrecon/internal/config"
	"github.com/openbanc/bankrecon/internal/extract"
	"github.com/openbanc/bankrecon/internal/match"
	"github.com/openbanc/bankrecon/internal/metrics"
	"github.com/openbanc/bankrecon/internal/notify"
	orderdomain "github.com/openbanc/bankrecon/internal/order/domain"
	"github.com/openbanc/bankrecon/internal/reconcile/domain"
	"github.com/openbanc/bankrecon/internal/signature"
	txdomain "github.com/openbanc/bankrecon/internal/transaction/domain"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Repo      txdomain.Repository
	Extractor *extract.Extractor
	Fallback  extract.Fallback
	Orders    orderdomain.Query
	Matcher   *match.Matcher
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Config    config.Config
	Log       *zap.Logger
}

type service struct {
	db        *gorm.DB
	node      *snowflake.Node
	repo      txdomain.Repository
	extractor *extract.Extractor
	fallback  extract.Fallback
	orders    orderdomain.Query
	matcher   *match.Matcher
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	cfg       config.Config
	log       *zap.Logger
}

func New(p Params) domain.Service {
	return &service{
		db:        p.DB,
		node:      p.Node,
		repo:      p.Repo,
		extractor: p.Extractor,
		fallback:  p.Fallback,
		orders:    p.Orders,
		matcher:   p.Matcher,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		cfg:       p.Config,
		log:       p.Log.Named("reconcile"),
	}
}

type webhookPayload struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Content       string          `json:"content"`
	Counterpart   string          `json:"counterpart"`
}

func (s *service) Ingest(ctx context.Context, body []byte, sig string) (domain.IngestResult, error) {
	if !signature.VerifyBody(s.cfg.WebhookSecret, body, sig) {
		s.metrics.WebhooksReceived.WithLabelValues("invalid_signature").Inc()
		return domain.IngestResult{}, domain.ErrInvalidSignature
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.metrics.WebhooksReceived.WithLabelValues("invalid_payload").Inc()
		return domain.IngestResult{}, domain.ErrInvalidPayload
	}
	if payload.TransactionID == "" || !payload.Amount.IsPositive() {
		s.metrics.WebhooksReceived.WithLabelValues("invalid_payload").Inc()
		return domain.IngestResult{}, domain.ErrInvalidPayload
	}

	now := time.Now().UTC()
	row := &txdomain.Transaction{
		ID:            s.node.Generate(),
		TransactionID: payload.TransactionID,
		Amount:        payload.Amount,
		Counterpart:   payload.Counterpart,
		Content:       payload.Content,
		Status:        txdomain.StatusReceived,
		RawPayload:    body,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	inserted, err := s.repo.Reserve(ctx, s.db, row)
	if err != nil {
		s.metrics.WebhooksReceived.WithLabelValues("store_error").Inc()
		return domain.IngestResult{}, err
	}
	if !inserted {
		s.log.Info("duplicate delivery ignored", zap.String("transaction_id", payload.TransactionID))
		s.metrics.WebhooksReceived.WithLabelValues("duplicate").Inc()
		return domain.IngestResult{TransactionID: payload.TransactionID, Duplicate: true}, nil
	}

	s.metrics.WebhooksReceived.WithLabelValues("accepted").Inc()
	return domain.IngestResult{TransactionID: payload.TransactionID}, nil
}

func (s *service) Reconcile(ctx context.Context, trxID string) {
	log := s.log.With(zap.String("transaction_id", trxID))

	// Once a transaction is reserved it must end up classified or in error,
	// even when the continuation's own context dies or a dependency panics.
	// Store writes therefore run on a detached context.
	store := context.WithoutCancel(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("classification panicked", zap.Any("panic", rec))
			s.fail(store, trxID, fmt.Sprintf("panic: %v", rec))
		}
	}()

	tx, err := s.repo.FindByTransactionID(store, s.db, trxID)
	if err != nil {
		log.Error("load transaction failed", zap.Error(err))
		return
	}
	if tx == nil {
		log.Warn("transaction disappeared before classification")
		return
	}
	if tx.Status != txdomain.StatusReceived {
		log.Info("transaction already classified, skipping", zap.String("status", string(tx.Status)))
		return
	}

	candidates := s.extractor.Extract(tx.Content)
	if len(candidates) == 0 {
		fallback, err := s.fallback.Extract(ctx, tx.Content)
		if err != nil {
			// Fallback output is advisory; a dead extractor just means we
			// classify with no candidates.
			log.Warn("fallback extractor failed", zap.Error(err))
		}
		candidates = extract.Dedup(fallback)
	}

	var orders []orderdomain.Summary
	if len(candidates) > 0 {
		orders, err = s.orders.FindByCandidates(ctx, candidates, s.cfg.OdooOrderPrefix)
		if err != nil {
			log.Error("order lookup failed", zap.Error(err))
			s.fail(store, trxID, fmt.Sprintf("order lookup: %v", err))
			return
		}
	}

	result := s.matcher.Classify(orders, tx.Amount, len(candidates) > 0)

	classification := txdomain.Classification{
		Status:     txdomain.Status(result.Outcome),
		Candidates: candidates,
	}
	if result.Order != nil {
		orderID := result.Order.ID
		classification.MatchedOrderID = &orderID
		classification.MatchedOrderName = result.Order.Name
		if result.Order.InvoiceNumber != "" {
			invoice := result.Order.InvoiceNumber
			classification.InvoiceNumber = &invoice
		}
	}

	if err := s.repo.UpdateClassification(store, s.db, trxID, classification, time.Now().UTC()); err != nil {
		log.Error("persist classification failed", zap.Error(err))
		s.fail(store, trxID, fmt.Sprintf("persist classification: %v", err))
		return
	}
	s.metrics.Classifications.WithLabelValues(string(classification.Status)).Inc()
	log.Info("transaction classified",
		zap.String("status", string(classification.Status)),
		zap.Strings("candidates", candidates),
	)

	if classification.Status != txdomain.StatusMatched {
		return
	}

	tx.Status = classification.Status
	tx.InvoiceNumber = classification.InvoiceNumber
	tx.MatchedOrderID = classification.MatchedOrderID
	tx.MatchedOrderName = classification.MatchedOrderName

	ref, err := s.notifier.PostReview(ctx, tx)
	if err != nil {
		log.Error("review notification failed", zap.Error(err))
		s.fail(store, trxID, fmt.Sprintf("review notification: %v", err))
		return
	}
	if err := s.repo.BindNotification(store, s.db, trxID, ref.Channel, ref.TS, time.Now().UTC()); err != nil {
		// The message is out; losing the reference only costs the delete
		// on resolution.
		log.Error("bind notification failed", zap.Error(err))
	}
}

func (s *service) fail(ctx context.Context, trxID, detail string) {
	if err := s.repo.MarkError(ctx, s.db, trxID, detail, time.Now().UTC()); err != nil {
		s.log.Error("mark error failed", zap.String("transaction_id", trxID), zap.Error(err))
		return
	}
	s.metrics.Classifications.WithLabelValues(string(txdomain.StatusError)).Inc()
}
