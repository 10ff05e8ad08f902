// Package notify delivers trade alerts to users through external
// transports. The Telegram client is the production path; LogNotifier
// stands in when no bot token is configured.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// Telegram sends alerts through the Telegram Bot API. The userID
// addressed by Send is a Telegram chat ID.
type Telegram struct {
	token   string
	apiBase string
	http    *http.Client
	log     *zap.SugaredLogger
}

// NewTelegram creates a Telegram notifier. apiBase is overridable for
// tests; empty selects DefaultAPIBase.
func NewTelegram(token, apiBase string, log *zap.SugaredLogger) *Telegram {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Telegram{
		token:   token,
		apiBase: apiBase,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send posts a sendMessage call for the user's chat. Best-effort: the
// caller logs and moves on when this fails.
func (t *Telegram) Send(ctx context.Context, userID, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: userID, Text: text})
	if err != nil {
		return fmt.Errorf("notify: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notify: telegram status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// LogNotifier writes alerts to the log instead of an external
// transport. Used when no Telegram token is configured.
type LogNotifier struct {
	Log *zap.SugaredLogger
}

func (n LogNotifier) Send(ctx context.Context, userID, text string) error {
	n.Log.Infow("trade_alert", "user_id", userID, "text", text)
	return nil
}
