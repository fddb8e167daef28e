package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	txdomain "github.com/openbanc/bankrecon/internal/transaction/domain"
)

const slackAPIBase = "https://slack.com/api"

// SlackNotifier implements Notifier over the Slack Web API.
type SlackNotifier struct {
	token   string
	channel string
	baseURL string
	log     *zap.Logger
	client  *http.Client
}

func NewSlackNotifier(token, channel string, log *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		token:   token,
		channel: channel,
		baseURL: slackAPIBase,
		log:     log.Named("notify.slack"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (n *SlackNotifier) WithBaseURL(url string) *SlackNotifier {
	n.baseURL = url
	return n
}

type slackResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

func (n *SlackNotifier) PostReview(ctx context.Context, tx *txdomain.Transaction) (Ref, error) {
	if n.token == "" || n.channel == "" {
		return Ref{}, ErrNotConfigured
	}

	invoice := ""
	if tx.InvoiceNumber != nil {
		invoice = *tx.InvoiceNumber
	}
	text := fmt.Sprintf(
		"Nhận chuyển khoản *%s* cho đơn *%s* (hoá đơn %s) từ %s. Xác nhận thanh toán?",
		tx.Amount.String(),
		tx.MatchedOrderName,
		invoice,
		tx.Counterpart,
	)

	payload := map[string]any{
		"channel": n.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{"type": "mrkdwn", "text": text},
			},
			{
				"type": "actions",
				"elements": []map[string]any{
					button(ActionConfirm, "Xác nhận", "primary", tx.TransactionID),
					button(ActionReport, "Báo sai", "danger", tx.TransactionID),
					button(ActionCancel, "Huỷ", "", tx.TransactionID),
				},
			},
		},
	}

	resp, err := n.call(ctx, "chat.postMessage", payload)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Channel: resp.Channel, TS: resp.TS}, nil
}

func (n *SlackNotifier) Resolve(ctx context.Context, ref Ref, text string) error {
	if ref.Channel != "" && ref.TS != "" {
		if _, err := n.call(ctx, "chat.delete", map[string]any{
			"channel": ref.Channel,
			"ts":      ref.TS,
		}); err != nil {
			// The follow-up still carries the outcome; a leftover review
			// message is only cosmetic.
			n.log.Warn("delete review message failed", zap.Error(err))
		}
	}

	channel := ref.Channel
	if channel == "" {
		channel = n.channel
	}
	return n.Notice(ctx, channel, text)
}

func (n *SlackNotifier) Notice(ctx context.Context, channel, text string) error {
	if n.token == "" {
		return ErrNotConfigured
	}
	if channel == "" {
		channel = n.channel
	}
	_, err := n.call(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
	})
	return err
}

func (n *SlackNotifier) call(ctx context.Context, method string, payload map[string]any) (*slackResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed slackResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode slack response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("slack %s failed: %s", method, parsed.Error)
	}
	return &parsed, nil
}

func button(actionID, label, style, value string) map[string]any {
	b := map[string]any{
		"type":      "button",
		"action_id": actionID,
		"text":      map[string]any{"type": "plain_text", "text": label},
		"value":     value,
	}
	if style != "" {
		b["style"] = style
	}
	return b
}
