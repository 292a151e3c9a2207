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

// Discord embed limits.
const (
	embedTitleLimit       = 256
	embedDescriptionLimit = 4096
)

// Embed colours keyed by the leading emoji of the alert title.
const (
	colorDefault = 0x5865F2
	colorHot     = 0xED4245
	colorDigest  = 0x57F287
	colorError   = 0xFEE75C
)

type discordEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

// DiscordSender posts alerts to a Discord webhook as a single embed.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

// NewDiscordSender creates a DiscordSender with a 10 second HTTP timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Send posts the alert. A 429 from Discord is reported as
// domain.ErrRateLimited.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	payload := discordPayload{
		Username: "ArbScout",
		Embeds: []discordEmbed{{
			Title:       clip(title, embedTitleLimit),
			Description: clip(message, embedDescriptionLimit),
			Color:       embedColor(title),
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("discord: retry after %ss: %w", resp.Header.Get("Retry-After"), domain.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// Name returns "discord".
func (d *DiscordSender) Name() string { return "discord" }

func embedColor(title string) int {
	switch {
	case strings.HasPrefix(title, "🔥"):
		return colorHot
	case strings.HasPrefix(title, "📊"):
		return colorDigest
	case strings.HasPrefix(title, "⚠️"), strings.HasPrefix(title, "🚨"):
		return colorError
	}
	return colorDefault
}

// clip shortens s to at most limit runes, marking the cut with an ellipsis.
func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
