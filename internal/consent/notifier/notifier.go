// Package notifier tells a remote endpoint that a session revoked consent.
// Delivery is best effort: local revocation never waits on it.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notice is the revocation payload. It identifies the session by its display
// prefix only.
type Notice struct {
	Event           string    `json:"event"`
	SessionIDPrefix string    `json:"session_id_prefix"`
	RevokedAt       time.Time `json:"revoked_at"`
}

// HTTPNotifier POSTs notices as JSON.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

// NewHTTP creates a notifier for url. Each delivery is bounded by timeout.
func NewHTTP(url string, timeout time.Duration) *HTTPNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

// Notify delivers one notice. Any non-2xx answer is an error.
func (n *HTTPNotifier) Notify(ctx context.Context, notice Notice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notice: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body is not read
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notice rejected: status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier is used when no revocation endpoint is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Notice) error {
	return nil
}
