package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// WebhookSink posts messages to a single Discord webhook URL.
type WebhookSink struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewWebhookSink(url string, client *http.Client, logger *zap.Logger) *WebhookSink {
	return &WebhookSink{url: url, client: client, logger: logger}
}

func (s *WebhookSink) Post(ctx context.Context, m Message) error {
	return postJSON(ctx, s.client, s.url, m)
}

// DirectWebhookSink delivers per-user messages through the relay bridge.
// The bridge resolves the user ID to a DM channel on the chat side.
type DirectWebhookSink struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewDirectWebhookSink(url string, client *http.Client, logger *zap.Logger) *DirectWebhookSink {
	return &DirectWebhookSink{url: url, client: client, logger: logger}
}

func (s *DirectWebhookSink) SendDM(ctx context.Context, userID string, m Message) error {
	payload := struct {
		UserID string `json:"user_id"`
		Message
	}{UserID: userID, Message: m}
	return postJSON(ctx, s.client, s.url, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
