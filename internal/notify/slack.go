package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nao1215/riskscope/internal/model"
)

// Slack posts a short message to a Slack incoming webhook.
type Slack struct {
	url    string
	client *http.Client
}

// NewSlack creates a Slack notifier. A nil client uses one with
// DefaultTimeout.
func NewSlack(url string, client *http.Client) (*Slack, error) {
	if url == "" {
		return nil, ErrMissingEndpoint
	}
	return &Slack{url: url, client: defaultClient(client)}, nil
}

// Name implements Notifier.
func (s *Slack) Name() string { return ChannelSlack }

// Notify implements Notifier.
func (s *Slack) Notify(ctx context.Context, d model.Decision) error {
	return postJSON(ctx, s.client, s.url, map[string]string{"text": SlackText(d)})
}

// SlackText formats the message text for d.
func SlackText(d model.Decision) string {
	return fmt.Sprintf("*Risk alert* kind=%s score=%d action=%s\n%s", d.Kind, d.CombinedScore, d.Action, d.Reason)
}
