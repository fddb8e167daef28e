package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbanc/bankrecon/internal/action/domain"
	"github.com/openbanc/bankrecon/internal/config"
	"github.com/openbanc/bankrecon/internal/metrics"
	"github.com/openbanc/bankrecon/internal/notify"
	orderdomain "github.com/openbanc/bankrecon/internal/order/domain"
	"github.com/openbanc/bankrecon/internal/signature"
	txdomain "github.com/openbanc/bankrecon/internal/transaction/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Repo     txdomain.Repository
	Orders   orderdomain.Writer
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Config   config.Config
	Log      *zap.Logger
}

type service struct {
	db       *gorm.DB
	repo     txdomain.Repository
	orders   orderdomain.Writer
	notifier notify.Notifier
	metrics  *metrics.Metrics
	cfg      config.Config
	log      *zap.Logger
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		repo:     p.Repo,
		orders:   p.Orders,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		cfg:      p.Config,
		log:      p.Log.Named("action"),
	}
}

// targetStatus maps a button to the status it resolves the transaction to.
var targetStatus = map[string]txdomain.Status{
	notify.ActionConfirm: txdomain.StatusConfirmed,
	notify.ActionReport:  txdomain.StatusReported,
	notify.ActionCancel:  txdomain.StatusCanceled,
}

func (s *service) Ingest(ctx context.Context, body []byte, timestamp, sig string) (domain.Callback, error) {
	if !signature.VerifySlack(s.cfg.SlackSigningSecret, body, timestamp, sig, time.Now()) {
		return domain.Callback{}, domain.ErrInvalidSignature
	}

	payload, err := notify.ParseActionPayload(body)
	if err != nil {
		return domain.Callback{}, domain.ErrInvalidPayload
	}

	action := payload.Actions[0]
	if _, ok := targetStatus[action.ActionID]; !ok {
		return domain.Callback{}, domain.ErrUnknownAction
	}
	if action.Value == "" {
		return domain.Callback{}, domain.ErrInvalidPayload
	}

	return domain.Callback{
		TransactionID: action.Value,
		ActionID:      action.ActionID,
		UserID:        payload.User.ID,
		Username:      payload.User.Username,
		Channel:       payload.Channel.ID,
		MessageTS:     payload.Message.TS,
	}, nil
}

func (s *service) Process(ctx context.Context, cb domain.Callback) {
	log := s.log.With(
		zap.String("transaction_id", cb.TransactionID),
		zap.String("action", cb.ActionID),
		zap.String("user", cb.UserID),
	)

	tx, err := s.repo.FindByTransactionID(ctx, s.db, cb.TransactionID)
	if err != nil {
		log.Error("load transaction failed", zap.Error(err))
		s.metrics.SlackActions.WithLabelValues(cb.ActionID, "error").Inc()
		return
	}
	if tx == nil {
		// Stale button from a deleted test workspace message or a foreign
		// environment. Nothing to resolve.
		log.Warn("callback for unknown transaction")
		s.metrics.SlackActions.WithLabelValues(cb.ActionID, "missing").Inc()
		return
	}

	if tx.Status.Resolved() {
		s.notice(ctx, cb, fmt.Sprintf(
			"Giao dịch `%s` đã được %s xử lý trước đó (%s).",
			tx.TransactionID, s.actorLabel(tx.ConfirmedBy), tx.Status,
		))
		s.metrics.SlackActions.WithLabelValues(cb.ActionID, "already_resolved").Inc()
		return
	}
	if tx.Status != txdomain.StatusMatched {
		log.Warn("callback for unconfirmable transaction", zap.String("status", string(tx.Status)))
		s.metrics.SlackActions.WithLabelValues(cb.ActionID, "not_matched").Inc()
		return
	}

	to := targetStatus[cb.ActionID]
	actor := cb.Username
	if actor == "" {
		actor = cb.UserID
	}

	applied, err := s.repo.TransitionFromMatched(ctx, s.db, cb.TransactionID, to, actor, time.Now().UTC())
	if err != nil {
		log.Error("apply transition failed", zap.Error(err))
		s.metrics.SlackActions.WithLabelValues(cb.ActionID, "error").Inc()
		return
	}
	if !applied {
		// Someone else's click won between our read and the update.
		if current, err := s.repo.FindByTransactionID(ctx, s.db, cb.TransactionID); err == nil && current != nil {
			s.notice(ctx, cb, fmt.Sprintf(
				"Giao dịch `%s` đã được %s xử lý trước đó (%s).",
				current.TransactionID, s.actorLabel(current.ConfirmedBy), current.Status,
			))
		}
		s.metrics.SlackActions.WithLabelValues(cb.ActionID, "already_resolved").Inc()
		return
	}

	if to == txdomain.StatusConfirmed && tx.MatchedOrderID != nil {
		note := fmt.Sprintf(
			"Thanh toán %s đã được xác nhận qua chuyển khoản (mã giao dịch %s, người xác nhận: %s).",
			tx.Amount.String(), tx.TransactionID, actor,
		)
		if err := s.orders.PostNote(ctx, *tx.MatchedOrderID, note); err != nil {
			// The transition already stands; the order note is audit sugar.
			log.Warn("post order note failed", zap.Error(err))
		}
	}

	ref := notify.Ref{Channel: tx.NotifyChannel, TS: tx.NotifyTS}
	if err := s.notifier.Resolve(ctx, ref, s.outcomeText(tx, to, actor)); err != nil {
		log.Warn("resolve notification failed", zap.Error(err))
	}

	log.Info("transaction resolved", zap.String("status", string(to)))
	s.metrics.SlackActions.WithLabelValues(cb.ActionID, "applied").Inc()
}

func (s *service) notice(ctx context.Context, cb domain.Callback, text string) {
	if err := s.notifier.Notice(ctx, cb.Channel, text); err != nil {
		s.log.Warn("notice failed", zap.Error(err))
	}
}

func (s *service) actorLabel(actor string) string {
	if actor == "" {
		return "người khác"
	}
	return actor
}

func (s *service) outcomeText(tx *txdomain.Transaction, to txdomain.Status, actor string) string {
	switch to {
	case txdomain.StatusConfirmed:
		return fmt.Sprintf(":white_check_mark: %s đã xác nhận thanh toán %s cho đơn %s.",
			actor, tx.Amount.String(), tx.MatchedOrderName)
	case txdomain.StatusReported:
		return fmt.Sprintf(":warning: %s đã báo sai khớp cho giao dịch `%s`.", actor, tx.TransactionID)
	default:
		return fmt.Sprintf(":no_entry: %s đã huỷ xử lý giao dịch `%s`.", actor, tx.TransactionID)
	}
}
