package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkordes/georeminder/internal/domain"
)

// DefaultWebhookTimeout bounds one webhook delivery.
const DefaultWebhookTimeout = 10 * time.Second

// WebhookNotifier posts each notification to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	tpl    *Template
	client *http.Client
}

type webhookPayload struct {
	MsgType  string              `json:"msgtype"`
	Text     webhookText         `json:"text"`
	Reminder domain.Notification `json:"reminder"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier. A nil tpl uses DefaultTemplate;
// a nil client gets one with DefaultWebhookTimeout.
func NewWebhookNotifier(url string, tpl *Template, client *http.Client) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("notify.NewWebhookNotifier: empty url")
	}
	if tpl == nil {
		var err error
		if tpl, err = NewTemplate(""); err != nil {
			return nil, err
		}
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultWebhookTimeout}
	}
	return &WebhookNotifier{url: url, tpl: tpl, client: client}, nil
}

// Notify renders msg and posts it. Any non-2xx response is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	content, err := n.tpl.Render(msg)
	if err != nil {
		return fmt.Errorf("notify.WebhookNotifier.Notify: %w", err)
	}
	body, err := json.Marshal(webhookPayload{
		MsgType:  "text",
		Text:     webhookText{Content: content},
		Reminder: msg,
	})
	if err != nil {
		return fmt.Errorf("notify.WebhookNotifier.Notify: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify.WebhookNotifier.Notify: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify.WebhookNotifier.Notify: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify.WebhookNotifier.Notify: unexpected status %d", resp.StatusCode)
	}
	return nil
}
