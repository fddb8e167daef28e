package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	orderdomain "github.com/openbanc/bankrecon/internal/order/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "prod", 2, "api-key", zaptest.NewLogger(t))
}

func TestFindByCandidates(t *testing.T) {
	var captured rpcRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jsonrpc", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"result":[
			{"id":42,"name":"S00042","x_invoice_number":"123","amount_total":1500000.5},
			{"id":43,"name":"S00043","x_invoice_number":false,"amount_total":200}
		]}`))
	})

	orders, err := c.FindByCandidates(context.Background(), []string{"123"}, "S")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.EqualValues(t, 42, orders[0].ID)
	assert.Equal(t, "S00042", orders[0].Name)
	assert.Equal(t, "123", orders[0].InvoiceNumber)
	assert.Equal(t, "1500000.5", orders[0].AmountTotal.String())

	assert.Empty(t, orders[1].InvoiceNumber, "boolean false must decode as empty")

	assert.Equal(t, "object", captured.Params.Service)
	assert.Equal(t, "execute_kw", captured.Params.Method)
	require.GreaterOrEqual(t, len(captured.Params.Args), 5)
	assert.Equal(t, "prod", captured.Params.Args[0])
	assert.Equal(t, "sale.order", captured.Params.Args[3])
	assert.Equal(t, "search_read", captured.Params.Args[4])
}

func TestFindByCandidatesEmptyInput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no rpc call expected")
	})

	orders, err := c.FindByCandidates(context.Background(), nil, "S")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFindByCandidatesRPCError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":200,"message":"Odoo Server Error"}}`))
	})

	_, err := c.FindByCandidates(context.Background(), []string{"123"}, "S")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Odoo Server Error")
}

func TestFindByCandidatesUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FindByCandidates(context.Background(), []string{"123"}, "S")
	assert.ErrorIs(t, err, orderdomain.ErrUnavailable)
}

func TestPostNote(t *testing.T) {
	var captured rpcRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"result":7}`))
	})

	require.NoError(t, c.PostNote(context.Background(), 42, "confirmed"))
	assert.Equal(t, "message_post", captured.Params.Args[4])
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", "", 0, "", zaptest.NewLogger(t))

	_, err := c.FindByCandidates(context.Background(), []string{"123"}, "S")
	assert.ErrorIs(t, err, orderdomain.ErrNotConfigured)

	assert.ErrorIs(t, c.PostNote(context.Background(), 1, "x"), orderdomain.ErrNotConfigured)
}
