package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

const (
	telegramAPI       = "https://api.telegram.org"
	telegramTextLimit = 4096
)

// TelegramSender posts to a chat through the Bot API sendMessage method.
type TelegramSender struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegramSender creates a TelegramSender with a 10 second HTTP timeout.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		baseURL: telegramAPI,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send posts title and message. Legacy Markdown uses single asterisks for
// bold, so double asterisks from the shared formatter are collapsed.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	text := message
	if title != "" {
		text = fmt.Sprintf("**%s**\n\n%s", title, message)
	}
	body, err := json.Marshal(telegramMessage{
		ChatID:                t.chatID,
		Text:                  clip(strings.ReplaceAll(text, "**", "*"), telegramTextLimit),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("telegram: %w", domain.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// Name returns "telegram".
func (t *TelegramSender) Name() string { return "telegram" }
