package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zhanghanyun/ikuuu-checkin/internal/config"
)

// Telegram delivers the report through a Telegram bot.
type Telegram struct {
	httpClient *http.Client
	cfg        config.TelegramConfig
	baseURL    string
}

// NewTelegram creates the Telegram channel.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		cfg:     cfg,
		baseURL: "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Notifier.
func (t *Telegram) Name() string { return "telegram" }

// Send posts the message to the bot's sendMessage endpoint.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":                  t.cfg.ChatID,
		"text":                     msg.Text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("failed to encode telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: %d - %s", resp.StatusCode, string(body))
	}
	return nil
}
