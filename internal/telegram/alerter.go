// Package telegram posts market activity to an operator chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"frodoestate/internal/logging"
)

const defaultAPI = "https://api.telegram.org"

// Alerter sends plain text messages to one chat through the Bot API.
// A nil *Alerter drops every message.
type Alerter struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// New returns nil when the bot token or chat id is missing.
func New(botToken, chatID string) *Alerter {
	botToken, chatID = strings.TrimSpace(botToken), strings.TrimSpace(chatID)
	if botToken == "" || chatID == "" {
		return nil
	}
	return &Alerter{
		token:   botToken,
		chatID:  chatID,
		apiBase: defaultAPI,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// WithAPIBase points the alerter at another Bot API host. Used by tests.
func (a *Alerter) WithAPIBase(base string) *Alerter {
	cp := *a
	cp.apiBase = strings.TrimRight(base, "/")
	return &cp
}

// Alert delivers msg. Failures are logged and never reach the caller.
func (a *Alerter) Alert(ctx context.Context, msg string) {
	if a == nil {
		return
	}
	log := logging.From(ctx)
	body, err := json.Marshal(map[string]string{"chat_id": a.chatID, "text": msg})
	if err != nil {
		log.Warn("telegram.marshal", "err", err)
		return
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", a.apiBase, a.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Warn("telegram.request", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		log.Warn("telegram.send", "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Warn("telegram.send.status", "status", resp.Status)
	}
}
