package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/climatewatch/internal/domain"
)

const (
	DefaultTelegramURL = "https://api.telegram.org"
	parseModeHTML      = "HTML"
)

type Telegram struct {
	BaseURL string
	Token   string
	ChatID  string
	Client  *http.Client
}

// NewTelegram returns nil when the sink is not configured.
func NewTelegram(baseURL, token, chatID string, timeout time.Duration) *Telegram {
	if token == "" || chatID == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	return &Telegram{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		ChatID:  chatID,
		Client:  &http.Client{Timeout: timeout},
	}
}

// sendMessage embeds the already-escaped text as a quoted JSON string.
type sendMessage struct {
	ChatID    string          `json:"chat_id"`
	Text      json.RawMessage `json:"text"`
	ParseMode string          `json:"parse_mode,omitempty"`
}

func (t *Telegram) payload(text string) domain.NotificationPayload {
	return domain.NotificationPayload{Target: t.ChatID, Text: text, ParseMode: parseModeHTML}
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if t == nil {
		return fmt.Errorf("%w: telegram disabled", ErrDispatchFailed)
	}

	p := t.payload(text)
	body, err := json.Marshal(sendMessage{
		ChatID:    p.Target,
		Text:      json.RawMessage(`"` + p.Text + `"`),
		ParseMode: p.ParseMode,
	})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrDispatchFailed, err)
	}

	endpoint := t.BaseURL + "/bot" + t.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request", ErrDispatchFailed)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		// url.Error embeds the endpoint, which carries the bot token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: telegram status %d", ErrDispatchFailed, resp.StatusCode)
	}
	return nil
}
