package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender posts webhook payloads over HTTP.
type Sender struct {
	client *http.Client
	secret string
}

// NewSender creates a sender. An empty secret disables signing.
func NewSender(secret string) *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		secret: secret,
	}
}

// Post delivers payload to url. Responses with status >= 400 count as
// delivery failures.
func (s *Sender) Post(ctx context.Context, url, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Faceveil-Event", eventType)
	req.Header.Set("User-Agent", "Faceveil-Webhook/1.0")
	if s.secret != "" {
		req.Header.Set("X-Faceveil-Signature", Sign(s.secret, payload))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}
