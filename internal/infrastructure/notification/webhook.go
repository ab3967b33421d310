// Package notification delivers low-stock alerts to the notification
// service webhook.
package notification

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/go-resty/resty/v2"
)

// PriorityHigh is the priority of every stock alert
const PriorityHigh = "HIGH"

// Message is the body posted to the webhook
type Message struct {
	Channel   string  `json:"channel"`
	To        string  `json:"to"`
	Payload   Payload `json:"payload"`
	Timestamp string  `json:"timestamp"`
}

// Payload is the human readable part of a Message
type Payload struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// WebhookClient posts alerts over HTTP
type WebhookClient struct {
	client  *resty.Client
	url     string
	channel string
	to      string
	now     func() time.Time
}

// NewWebhookClient creates a client from configuration
func NewWebhookClient(cfg config.NotificationConfig) *WebhookClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "gestock-backend")
	return &WebhookClient{
		client:  client,
		url:     cfg.WebhookURL,
		channel: cfg.Channel,
		to:      cfg.Recipient,
		now:     time.Now,
	}
}

// BuildMessage renders an alert into the webhook body
func (c *WebhookClient) BuildMessage(alert appinv.StockAlert) Message {
	return Message{
		Channel: c.channel,
		To:      c.to,
		Payload: Payload{
			Subject:  alert.Subject(),
			Message:  alert.Message(),
			Priority: PriorityHigh,
		},
		Timestamp: c.now().UTC().Format(time.RFC3339),
	}
}

// Send posts the alert. Any non 2xx answer is an error so the task retries.
func (c *WebhookClient) Send(ctx context.Context, alert appinv.StockAlert) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Tenant-ID", alert.TenantID).
		SetHeader("Idempotency-Key", alert.EventID).
		SetBody(c.BuildMessage(alert)).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("notification webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification webhook returned %s", resp.Status())
	}
	return nil
}

// SendAlert lets the client notify directly when no worker is running
func (c *WebhookClient) SendAlert(ctx context.Context, alert appinv.StockAlert) error {
	return c.Send(ctx, alert)
}

var _ appinv.StockAlertNotifier = (*WebhookClient)(nil)
