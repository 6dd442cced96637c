// Package notify delivers approval-request notifications. Delivery is
// best-effort: a failed send is reported back as a per-draft outcome and
// never fails the run that produced it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier attempts delivery of one approval-request notification and
// reports the outcome.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}

// SlackNotifier posts notifications to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// slackPayload is the webhook body: blocks for capable clients, text as
// the fallback rendering.
type slackPayload struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// NewSlackNotifier creates a notifier for a Slack incoming webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the notification to the webhook. A missing webhook URL or a
// non-2xx response is returned as an error for the caller to record.
func (n *SlackNotifier) Send(ctx context.Context, notification Notification) error {
	if n.webhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	body, err := json.Marshal(slackPayload{
		Text:   notification.PlainText(),
		Blocks: notification.Blocks(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}

	logrus.Debugf("Delivered approval notification for draft %d", notification.DraftID)
	return nil
}
