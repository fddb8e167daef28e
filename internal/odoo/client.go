package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	orderdomain "github.com/openbanc/bankrecon/internal/order/domain"
)

// invoiceField is the custom sale.order field carrying the merchant-facing
// invoice number.
const invoiceField = "x_invoice_number"

// Client talks to the Odoo external API over JSON-RPC. It implements both
// order lookups and the audit-note write used on confirmation.
type Client struct {
	url      string
	database string
	userID   int64
	apiKey   string
	log      *zap.Logger
	client   *http.Client
}

func NewClient(url, database string, userID int64, apiKey string, log *zap.Logger) *Client {
	return &Client{
		url:      url,
		database: database,
		userID:   userID,
		apiKey:   apiKey,
		log:      log.Named("odoo"),
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type orderRow struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	InvoiceNumber json.RawMessage `json:"x_invoice_number"`
	AmountTotal   json.Number     `json:"amount_total"`
}

func (c *Client) configured() bool {
	return c.url != "" && c.database != "" && c.userID != 0 && c.apiKey != ""
}

// FindByCandidates searches open sale orders whose invoice field is one of
// candidates or whose name is namePrefix+candidate.
func (c *Client) FindByCandidates(ctx context.Context, candidates []string, namePrefix string) ([]orderdomain.Summary, error) {
	if !c.configured() {
		return nil, orderdomain.ErrNotConfigured
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		names = append(names, namePrefix+candidate)
	}

	filter := []any{
		"&",
		[]any{"state", "in", []string{"draft", "sent", "sale"}},
		"|",
		[]any{invoiceField, "in", candidates},
		[]any{"name", "in", names},
	}
	kwargs := map[string]any{
		"fields": []string{"id", "name", invoiceField, "amount_total"},
		"limit":  20,
	}

	raw, err := c.executeKw(ctx, "sale.order", "search_read", []any{filter}, kwargs)
	if err != nil {
		return nil, err
	}

	var rows []orderRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode sale.order rows: %w", err)
	}

	out := make([]orderdomain.Summary, 0, len(rows))
	for _, row := range rows {
		total, err := decimal.NewFromString(row.AmountTotal.String())
		if err != nil {
			c.log.Warn("unparseable order total",
				zap.Int64("order_id", row.ID),
				zap.String("amount_total", row.AmountTotal.String()),
			)
			continue
		}
		out = append(out, orderdomain.Summary{
			ID:            row.ID,
			Name:          row.Name,
			InvoiceNumber: decodeTextField(row.InvoiceNumber),
			AmountTotal:   total,
		})
	}
	return out, nil
}

// PostNote appends a chatter message to a sale order.
func (c *Client) PostNote(ctx context.Context, orderID int64, body string) error {
	if !c.configured() {
		return orderdomain.ErrNotConfigured
	}

	_, err := c.executeKw(ctx, "sale.order", "message_post",
		[]any{[]int64{orderID}},
		map[string]any{"body": body},
	)
	return err
}

func (c *Client) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	callArgs := []any{c.database, c.userID, c.apiKey, model, method}
	callArgs = append(callArgs, args...)
	if kwargs != nil {
		callArgs = append(callArgs, kwargs)
	}

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: rpcParams{
			Service: "object",
			Method:  "execute_kw",
			Args:    callArgs,
		},
		ID: time.Now().UnixNano(),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/jsonrpc", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orderdomain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", orderdomain.ErrUnavailable, resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode jsonrpc response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("odoo rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	return parsed.Result, nil
}

// Odoo encodes empty char fields as boolean false.
func decodeTextField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
