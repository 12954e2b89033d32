// Package config builds the runtime configuration from viper.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/zhanghanyun/ikuuu-checkin/internal/common"
	"github.com/zhanghanyun/ikuuu-checkin/internal/model"
)

// TelegramConfig holds the chat-bot channel settings.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// Configured reports whether the channel has everything it needs.
func (c TelegramConfig) Configured() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// WecomConfig holds the enterprise-messaging channel settings. Webhook and
// app delivery are mutually exclusive; webhook wins when both are set.
type WecomConfig struct {
	Webhook string
	CorpID  string
	AgentID string
	Secret  string
	ToUser  string
}

// WebhookConfigured reports whether the webhook bot can be used.
func (c WecomConfig) WebhookConfigured() bool {
	return c.Webhook != ""
}

// AppConfigured reports whether the two-step app gateway can be used.
func (c WecomConfig) AppConfigured() bool {
	return c.CorpID != "" && c.AgentID != "" && c.Secret != ""
}

// GitHubConfig holds the hosted notification feed settings.
type GitHubConfig struct {
	Token  string
	Repo   string
	Branch string
}

// Configured reports whether the feed can be updated.
func (c GitHubConfig) Configured() bool {
	return c.Token != "" && c.Repo != ""
}

// Config is the full runtime configuration, built once at startup and passed
// into each component's constructor.
type Config struct {
	Domain        string
	HistoryDir    string
	Accounts      []model.Account
	Telegram      TelegramConfig
	Wecom         WecomConfig
	GitHub        GitHubConfig
	MaxRetry      int
	EnableHistory bool
}

// SetDefaults registers the configuration defaults on the given viper
// instance. Call before Load.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("domain", "ikuuu.eu")
	v.SetDefault("max_retry", 3)
	v.SetDefault("enable_history", true)
	v.SetDefault("history_dir", "history")
	v.SetDefault("wecom.to_user", "@all")
	v.SetDefault("github.branch", "main")
}

// Load builds a Config from the given viper instance. On an account-list
// parse error the rest of the config is still returned, so callers can
// notify the failure through whatever channels are configured.
func Load(v *viper.Viper) (*Config, error) {
	accounts, accErr := loadAccounts(v)

	cfg := &Config{
		Domain:        v.GetString("domain"),
		Accounts:      accounts,
		MaxRetry:      v.GetInt("max_retry"),
		EnableHistory: v.GetBool("enable_history"),
		HistoryDir:    v.GetString("history_dir"),
		Telegram: TelegramConfig{
			BotToken: v.GetString("telegram.bot_token"),
			ChatID:   v.GetString("telegram.chat_id"),
		},
		Wecom: WecomConfig{
			Webhook: v.GetString("wecom.webhook"),
			CorpID:  v.GetString("wecom.corp_id"),
			AgentID: v.GetString("wecom.agent_id"),
			Secret:  v.GetString("wecom.secret"),
			ToUser:  v.GetString("wecom.to_user"),
		},
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Repo:   v.GetString("github.repo"),
			Branch: v.GetString("github.branch"),
		},
	}

	return cfg, accErr
}

// loadAccounts reads the account list. The environment carries it as a JSON
// array string; a YAML config file carries it as a native list.
func loadAccounts(v *viper.Viper) ([]model.Account, error) {
	raw := v.Get("accounts")
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		var accounts []model.Account
		if err := json.Unmarshal([]byte(val), &accounts); err != nil {
			return nil, fmt.Errorf("%w: accounts is not valid JSON: %v", common.ErrInvalidConfig, err)
		}
		return accounts, nil
	default:
		var accounts []model.Account
		if err := v.UnmarshalKey("accounts", &accounts); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
		}
		return accounts, nil
	}
}

// Validate checks the invariants the run depends on. An empty account list
// is a configuration error, caught before any network request.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return common.ErrNoAccounts
	}
	for i, a := range c.Accounts {
		if a.Email == "" || !strings.Contains(a.Email, "@") {
			return fmt.Errorf("%w: account %d has an invalid email", common.ErrInvalidConfig, i)
		}
		if a.Passwd == "" {
			return fmt.Errorf("%w: account %d has no password", common.ErrInvalidConfig, i)
		}
	}
	if c.MaxRetry < 0 {
		return fmt.Errorf("%w: max_retry must not be negative", common.ErrInvalidConfig)
	}
	return nil
}
