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

// TelegramSink sends plain-text messages through the Bot API.
type TelegramSink struct {
	apiURL string
	token  string
	client *http.Client
	logger *zap.Logger
}

func NewTelegramSink(apiURL, token string, client *http.Client, logger *zap.Logger) *TelegramSink {
	return &TelegramSink{apiURL: apiURL, token: token, client: client, logger: logger}
}

func (s *TelegramSink) SendText(ctx context.Context, chatID, text string) error {
	payload := struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}{ChatID: chatID, Text: text}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
