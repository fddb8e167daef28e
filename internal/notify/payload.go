package notify

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

// ActionPayload is the parsed Slack interactivity callback.
type ActionPayload struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Message struct {
		TS string `json:"ts"`
	} `json:"message"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
}

var ErrMalformedPayload = errors.New("malformed_action_payload")

// ParseActionPayload decodes the interactivity callback body. Slack sends
// form-encoded "payload=<urlencoded json>"; raw JSON is accepted too.
func ParseActionPayload(body []byte) (*ActionPayload, error) {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return nil, ErrMalformedPayload
	}

	if strings.HasPrefix(raw, "payload=") || strings.Contains(raw, "&payload=") {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return nil, ErrMalformedPayload
		}
		raw = values.Get("payload")
	}

	var payload ActionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, ErrMalformedPayload
	}
	if payload.User.ID == "" || len(payload.Actions) == 0 {
		return nil, ErrMalformedPayload
	}
	return &payload, nil
}
