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

	"github.com/rs/zerolog"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// Telegram posts messages to a chat through the bot sendMessage endpoint.
type Telegram struct {
	log     zerolog.Logger
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

// TelegramOption configures Telegram construction.
type TelegramOption func(*Telegram)

// WithTelegramBaseURL overrides the API host (tests).
func WithTelegramBaseURL(u string) TelegramOption {
	return func(t *Telegram) {
		if u != "" {
			t.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithTelegramHTTPClient swaps the underlying HTTP client.
func WithTelegramHTTPClient(h *http.Client) TelegramOption {
	return func(t *Telegram) {
		if h != nil {
			t.client = h
		}
	}
}

// NewTelegram builds a Telegram transport for one bot token and chat.
func NewTelegram(log zerolog.Logger, token, chatID string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		log:     log,
		client:  &http.Client{Timeout: 12 * time.Second},
		baseURL: defaultTelegramBaseURL,
		token:   token,
		chatID:  chatID,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type telegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts one markdown message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(telegramPayload{ChatID: t.chatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}
	return nil
}
