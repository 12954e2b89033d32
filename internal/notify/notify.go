// Package notify builds the run report and fans it out to the configured
// notification channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zhanghanyun/ikuuu-checkin/internal/config"
)

// Message is the composite run report in both channel renderings.
type Message struct {
	Text string // plain text, for the chat channels
	HTML string // <br>-separated, for the hosted feed
}

// Notifier is one independently configured notification channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Result captures one channel's dispatch outcome.
type Result struct {
	Err  error
	Name string
}

// ChatChannels returns the configured chat-style channels: Telegram and at
// most one enterprise-messaging delivery (webhook preferred over the app
// gateway when both are configured).
func ChatChannels(cfg *config.Config) []Notifier {
	var channels []Notifier
	if cfg.Telegram.Configured() {
		channels = append(channels, NewTelegram(cfg.Telegram))
	}
	switch {
	case cfg.Wecom.WebhookConfigured():
		channels = append(channels, NewWecomBot(cfg.Wecom))
	case cfg.Wecom.AppConfigured():
		channels = append(channels, NewWecomApp(cfg.Wecom))
	}
	return channels
}

// AllChannels returns the chat channels plus the hosted feed when
// configured.
func AllChannels(cfg *config.Config) []Notifier {
	channels := ChatChannels(cfg)
	if cfg.GitHub.Configured() {
		channels = append(channels, NewGitHubFeed(cfg.GitHub))
	}
	return channels
}

// Dispatch sends msg to every channel concurrently and waits for all of
// them. Each channel runs inside its own failure boundary: an error or
// panic in one never affects the others. Results are returned in channel
// order.
func Dispatch(ctx context.Context, channels []Notifier, msg Message) []Result {
	results := make([]Result, len(channels))

	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch Notifier) {
			defer wg.Done()
			results[i] = Result{Name: ch.Name(), Err: dispatchOne(ctx, ch, msg)}
		}(i, ch)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			slog.Warn("Notification channel failed", "channel", r.Name, "error", r.Err)
		} else {
			slog.Info("Notification sent", "channel", r.Name)
		}
	}
	return results
}

func dispatchOne(ctx context.Context, ch Notifier, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panicked: %v", r)
		}
	}()
	return ch.Send(ctx, msg)
}
