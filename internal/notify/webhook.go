package notify

import (
	"context"
	"net/http"

	"github.com/nao1215/riskscope/internal/model"
)

// WebhookEvent is the event name sent in every webhook payload.
const WebhookEvent = "risk_alert"

// WebhookPayload is the JSON body posted to the webhook.
type WebhookPayload struct {
	Event     string         `json:"event"`
	RequestID string         `json:"request_id,omitempty"`
	Decision  model.Decision `json:"decision"`
}

// Webhook posts decisions to a workflow webhook such as n8n.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook notifier. A nil client uses one with
// DefaultTimeout.
func NewWebhook(url string, client *http.Client) (*Webhook, error) {
	if url == "" {
		return nil, ErrMissingEndpoint
	}
	return &Webhook{url: url, client: defaultClient(client)}, nil
}

// Name implements Notifier.
func (w *Webhook) Name() string { return ChannelWebhook }

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, d model.Decision) error {
	return postJSON(ctx, w.client, w.url, WebhookPayload{
		Event:     WebhookEvent,
		RequestID: d.RequestID,
		Decision:  d,
	})
}
