package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/probekit/linkmonitor/internal/domain"
)

// Webhook posts alerts to a chat webhook (Slack-compatible payload).
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

func (w *Webhook) SendLowCredit(ctx context.Context, email string) error {
	return w.post(ctx, fmt.Sprintf("*Credit exhausted*\naccount: %s — monitoring paused", email))
}

func (w *Webhook) SendFailures(ctx context.Context, email string, failures []domain.ProbeResult) error {
	text := fmt.Sprintf("*Health check failures*\naccount: %s\n%s", email, failureText(failures))
	return w.post(ctx, text)
}

func (w *Webhook) post(ctx context.Context, text string) error {
	if w == nil || w.URL == "" {
		return errors.New("webhook disabled")
	}
	body, _ := json.Marshal(webhookPayload{Text: text})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("webhook non-2xx")
	}
	return nil
}
