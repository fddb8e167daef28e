package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Fallback is an external extraction service consulted only when the rule
// table produced nothing. Its output is used verbatim apart from dedup.
type Fallback interface {
	Extract(ctx context.Context, content string) ([]string, error)
}

// NoOpFallback is used when no fallback endpoint is configured.
type NoOpFallback struct{}

func (NoOpFallback) Extract(ctx context.Context, content string) ([]string, error) {
	return nil, nil
}

// HTTPFallback calls a JSON extraction endpoint.
type HTTPFallback struct {
	url    string
	client *http.Client
}

func NewHTTPFallback(url string) *HTTPFallback {
	return &HTTPFallback{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type fallbackRequest struct {
	Content string `json:"content"`
}

type fallbackResponse struct {
	Candidates []string `json:"candidates"`
}

func (f *HTTPFallback) Extract(ctx context.Context, content string) ([]string, error) {
	body, err := json.Marshal(fallbackRequest{Content: content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback extractor returned status %d", resp.StatusCode)
	}

	var parsed fallbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Candidates, nil
}
