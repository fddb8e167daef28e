package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/openbanc/bankrecon/internal/config"
	"github.com/openbanc/bankrecon/internal/extract"
	"github.com/openbanc/bankrecon/internal/match"
	"github.com/openbanc/bankrecon/internal/metrics"
	"github.com/openbanc/bankrecon/internal/notify"
	orderdomain "github.com/openbanc/bankrecon/internal/order/domain"
	"github.com/openbanc/bankrecon/internal/reconcile/domain"
	txdomain "github.com/openbanc/bankrecon/internal/transaction/domain"
	txrepo "github.com/openbanc/bankrecon/internal/transaction/repository"
)

const testSecret = "webhook-secret"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeOrders struct {
	orders   []orderdomain.Summary
	err      error
	panicMsg string
	calls    [][]string
}

func (f *fakeOrders) FindByCandidates(ctx context.Context, candidates []string, namePrefix string) ([]orderdomain.Summary, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, candidates)
	return f.orders, f.err
}

type fakeNotifier struct {
	reviews []string
	err     error
}

func (f *fakeNotifier) PostReview(ctx context.Context, tx *txdomain.Transaction) (notify.Ref, error) {
	if f.err != nil {
		return notify.Ref{}, f.err
	}
	f.reviews = append(f.reviews, tx.TransactionID)
	return notify.Ref{Channel: "C1", TS: fmt.Sprintf("1.%d", len(f.reviews))}, nil
}

func (f *fakeNotifier) Resolve(ctx context.Context, ref notify.Ref, text string) error { return nil }
func (f *fakeNotifier) Notice(ctx context.Context, channel, text string) error        { return nil }

type fakeFallback struct {
	candidates []string
	err        error
	called     bool
}

func (f *fakeFallback) Extract(ctx context.Context, content string) ([]string, error) {
	f.called = true
	return f.candidates, f.err
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	repo     txdomain.Repository
	orders   *fakeOrders
	notifier *fakeNotifier
	fallback *fakeFallback
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&txdomain.Transaction{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		repo:     txrepo.Provide(),
		orders:   &fakeOrders{},
		notifier: &fakeNotifier{},
		fallback: &fakeFallback{},
	}
	f.svc = New(Params{
		DB:        db,
		Node:      node,
		Repo:      f.repo,
		Extractor: extract.New(),
		Fallback:  f.fallback,
		Orders:    f.orders,
		Matcher:   match.New(decimal.NewFromInt(1)),
		Notifier:  f.notifier,
		Metrics:   metrics.New(),
		Config:    config.Config{WebhookSecret: testSecret, OdooOrderPrefix: "S"},
		Log:       zaptest.NewLogger(t),
	})
	return f
}

func (f *fixture) mustLoad(t *testing.T, trxID string) *txdomain.Transaction {
	t.Helper()
	tx, err := f.repo.FindByTransactionID(context.Background(), f.db, trxID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	return tx
}

func TestIngestRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	body := `{"transaction_id":"FT1","amount":100,"content":"HD1"}`

	_, err := f.svc.Ingest(context.Background(), []byte(body), "deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	tx, err := f.repo.FindByTransactionID(context.Background(), f.db, "FT1")
	require.NoError(t, err)
	assert.Nil(t, tx, "rejected webhook must leave no trace")
}

func TestIngestRejectsBadPayload(t *testing.T) {
	f := newFixture(t)
	cases := []string{
		`not json`,
		`{"amount":100,"content":"HD1"}`,
		`{"transaction_id":"FT1","amount":0,"content":"HD1"}`,
		`{"transaction_id":"FT1","amount":-5,"content":"HD1"}`,
	}
	for _, body := range cases {
		_, err := f.svc.Ingest(context.Background(), []byte(body), sign(body))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload, body)
	}
}

func TestIngestReservesAndDeduplicates(t *testing.T) {
	f := newFixture(t)
	body := `{"transaction_id":"FT2024001","amount":1500000,"content":"CHUYEN KHOAN HD0123","counterpart":"NGUYEN VAN A"}`

	first, err := f.svc.Ingest(context.Background(), []byte(body), sign(body))
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := f.svc.Ingest(context.Background(), []byte(body), sign(body))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	tx := f.mustLoad(t, "FT2024001")
	assert.Equal(t, txdomain.StatusReceived, tx.Status)
	assert.Equal(t, "NGUYEN VAN A", tx.Counterpart)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(1500000)))
}

func ingest(t *testing.T, f *fixture, body string) {
	t.Helper()
	_, err := f.svc.Ingest(context.Background(), []byte(body), sign(body))
	require.NoError(t, err)
}

func TestReconcileUniqueMatch(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []orderdomain.Summary{
		{ID: 42, Name: "S00042", InvoiceNumber: "123", AmountTotal: decimal.RequireFromString("1500000.5")},
	}
	ingest(t, f, `{"transaction_id":"FT1","amount":1500000,"content":"CHUYEN KHOAN HD0123 THANG 5"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusMatched, tx.Status)
	require.NotNil(t, tx.MatchedOrderID)
	assert.EqualValues(t, 42, *tx.MatchedOrderID)
	assert.Equal(t, "S00042", tx.MatchedOrderName)
	require.NotNil(t, tx.InvoiceNumber)
	assert.Equal(t, "123", *tx.InvoiceNumber)
	assert.Equal(t, "C1", tx.NotifyChannel)
	assert.NotEmpty(t, tx.NotifyTS)

	require.Len(t, f.orders.calls, 1)
	assert.Equal(t, []string{"123"}, f.orders.calls[0])
	assert.Equal(t, []string{"FT1"}, f.notifier.reviews)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []orderdomain.Summary{
		{ID: 42, Name: "S00042", AmountTotal: decimal.NewFromInt(1000)},
	}
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"HD7"}`)

	f.svc.Reconcile(context.Background(), "FT1")
	f.svc.Reconcile(context.Background(), "FT1")

	assert.Len(t, f.notifier.reviews, 1, "a replayed continuation must not re-notify")
	assert.Len(t, f.orders.calls, 1)
}

func TestReconcileAmountMismatch(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []orderdomain.Summary{
		{ID: 42, Name: "S00042", AmountTotal: decimal.NewFromInt(2000000)},
	}
	ingest(t, f, `{"transaction_id":"FT1","amount":1500000,"content":"HD123"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusAmountMismatch, tx.Status)
	assert.Nil(t, tx.MatchedOrderID)
	assert.Empty(t, f.notifier.reviews, "only a unique match gets a review message")
}

func TestReconcileMultipleWithinTolerance(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []orderdomain.Summary{
		{ID: 1, Name: "S00001", AmountTotal: decimal.NewFromInt(1000)},
		{ID: 2, Name: "S00002", AmountTotal: decimal.NewFromInt(1000)},
	}
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"HD5"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusMultiple, tx.Status)
	assert.Empty(t, f.notifier.reviews)
}

func TestReconcileNoCandidates(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"thanh toan"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusNotFound, tx.Status)
	assert.True(t, f.fallback.called, "empty rule output must consult the fallback")
	assert.Empty(t, f.orders.calls, "no candidates means no order lookup")
}

func TestReconcileUsesFallbackCandidates(t *testing.T) {
	f := newFixture(t)
	f.fallback.candidates = []string{"777"}
	f.orders.orders = []orderdomain.Summary{
		{ID: 7, Name: "S00777", AmountTotal: decimal.NewFromInt(1000)},
	}
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"thanh toan"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusMatched, tx.Status)
	require.Len(t, f.orders.calls, 1)
	assert.Equal(t, []string{"777"}, f.orders.calls[0])
}

func TestReconcileOrderLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.orders.err = orderdomain.ErrUnavailable
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"HD9"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusError, tx.Status)
	assert.Contains(t, tx.ErrorDetail, "order lookup")
}

func TestReconcileDeadContextStillRecordsOutcome(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"HD9"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.svc.Reconcile(ctx, "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusError, tx.Status,
		"a canceled continuation must not leave the row in received")
	assert.Contains(t, tx.ErrorDetail, "order lookup")
}

func TestReconcilePanicRecordsError(t *testing.T) {
	f := newFixture(t)
	f.orders.panicMsg = "boom"
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"HD9"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusError, tx.Status)
	assert.Contains(t, tx.ErrorDetail, "boom")
}

func TestReconcileNotificationFailure(t *testing.T) {
	f := newFixture(t)
	f.orders.orders = []orderdomain.Summary{
		{ID: 42, Name: "S00042", AmountTotal: decimal.NewFromInt(1000)},
	}
	f.notifier.err = errors.New("slack down")
	ingest(t, f, `{"transaction_id":"FT1","amount":1000,"content":"HD9"}`)

	f.svc.Reconcile(context.Background(), "FT1")

	tx := f.mustLoad(t, "FT1")
	assert.Equal(t, txdomain.StatusError, tx.Status)
	assert.Contains(t, tx.ErrorDetail, "review notification")
}
