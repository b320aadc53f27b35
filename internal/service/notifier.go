package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
)

// Notifier delivers a reminder to the user. Implementations must be safe for
// concurrent use because deliveries run on the queue's worker pool.
type Notifier interface {
	Deliver(ctx context.Context, reminder models.Reminder) error
}

// LogNotifier writes reminders to the structured log. It is the default sink
// when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by the application log.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Deliver logs the reminder.
func (n *LogNotifier) Deliver(_ context.Context, reminder models.Reminder) error {
	n.logger.Info("reminder delivered",
		zap.String("kind", string(reminder.Kind)),
		zap.String("user_id", reminder.UserID),
		zap.String("class_id", reminder.ClassID),
		zap.String("tag", reminder.DedupeTag),
		zap.String("title", reminder.Title),
	)
	return nil
}

// WebhookNotifier posts reminders as JSON to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier that POSTs to the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver posts the reminder payload. Non-2xx responses are errors so the
// queue retries the delivery.
func (n *WebhookNotifier) Deliver(ctx context.Context, reminder models.Reminder) error {
	body, err := json.Marshal(reminder)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post reminder webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reminder webhook returned %d", resp.StatusCode)
	}
	return nil
}
