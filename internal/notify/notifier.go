// Package notify renders scan results into bounded chat messages and delivers
// them over a pluggable transport.
package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/config"
)

// Notifier sends one finalized message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Stdout prints messages instead of sending them; the fallback when no
// transport credentials are configured.
type Stdout struct{}

func (Stdout) Send(_ context.Context, text string) error {
	fmt.Println(text)
	return nil
}

// FromConfig selects a transport from config plus environment credentials.
// Missing credentials degrade to Stdout so a scan still reports somewhere.
func FromConfig(log zerolog.Logger, cfg config.Notify) Notifier {
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "slack":
		token := os.Getenv("SLACK_TOKEN")
		if token == "" || cfg.Slack.Channel == "" {
			log.Warn().Msg("slack credentials missing, printing to stdout")
			return Stdout{}
		}
		return NewSlack(token, cfg.Slack.Channel)
	case "stdout":
		return Stdout{}
	default:
		token := os.Getenv("TELEGRAM_TOKEN")
		chatID := os.Getenv("TELEGRAM_CHAT_ID")
		if chatID == "" {
			chatID = cfg.Telegram.ChatID
		}
		if token == "" || chatID == "" {
			log.Warn().Msg("telegram credentials missing, printing to stdout")
			return Stdout{}
		}
		return NewTelegram(log, token, chatID)
	}
}

// Deliver sends messages in order with a pause between sends to respect the
// transport's own rate limits. A failed send is logged and skipped; later
// messages still go out. Returns the number delivered.
func Deliver(ctx context.Context, log zerolog.Logger, n Notifier, messages []string, pause time.Duration) int {
	sent := 0
	for i, msg := range messages {
		if i > 0 && pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return sent
			}
		}
		if err := n.Send(ctx, msg); err != nil {
			log.Error().Err(err).Int("message", i+1).Int("of", len(messages)).Msg("notification send failed")
			continue
		}
		sent++
	}
	return sent
}
