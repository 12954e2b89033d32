package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zhanghanyun/ikuuu-checkin/internal/config"
)

const wecomGateway = "https://qyapi.weixin.qq.com/cgi-bin"

// WecomBot delivers the report through an enterprise webhook bot.
type WecomBot struct {
	httpClient *http.Client
	cfg        config.WecomConfig
}

// NewWecomBot creates the webhook-bot channel.
func NewWecomBot(cfg config.WecomConfig) *WecomBot {
	return &WecomBot{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Notifier.
func (w *WecomBot) Name() string { return "wecom-bot" }

// Send posts a text message to the webhook URL.
func (w *WecomBot) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]any{
		"msgtype": "text",
		"text":    map[string]string{"content": msg.Text},
	})
	if err != nil {
		return fmt.Errorf("failed to encode wecom payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.Webhook, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create wecom request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wecom webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wecom webhook error: status %d", resp.StatusCode)
	}
	return nil
}

// WecomApp delivers the report through the enterprise app gateway: fetch an
// access token, then send the message with it.
type WecomApp struct {
	httpClient *http.Client
	cfg        config.WecomConfig
	gateway    string
}

type wecomAPIResponse struct {
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
	ErrCode     int    `json:"errcode"`
}

// NewWecomApp creates the app-gateway channel.
func NewWecomApp(cfg config.WecomConfig) *WecomApp {
	return &WecomApp{
		cfg:     cfg,
		gateway: wecomGateway,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Notifier.
func (w *WecomApp) Name() string { return "wecom-app" }

// Send fetches an access token and posts the message through the gateway.
func (w *WecomApp) Send(ctx context.Context, msg Message) error {
	token, err := w.getToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"touser":  w.cfg.ToUser,
		"msgtype": "text",
		"agentid": w.cfg.AgentID,
		"text":    map[string]string{"content": msg.Text},
		"safe":    0,
	})
	if err != nil {
		return fmt.Errorf("failed to encode wecom app payload: %w", err)
	}

	sendURL := fmt.Sprintf("%s/message/send?access_token=%s", w.gateway, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create wecom app request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wecom app request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result wecomAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode wecom app response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("wecom app send failed: %s", result.ErrMsg)
	}
	return nil
}

func (w *WecomApp) getToken(ctx context.Context) (string, error) {
	tokenURL := fmt.Sprintf("%s/gettoken?corpid=%s&corpsecret=%s",
		w.gateway, url.QueryEscape(w.cfg.CorpID), url.QueryEscape(w.cfg.Secret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wecom token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result wecomAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode wecom token response: %w", err)
	}
	if result.ErrCode != 0 {
		return "", fmt.Errorf("wecom token fetch failed: %s", result.ErrMsg)
	}
	return result.AccessToken, nil
}
