package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

const embedColor = 5814783 // blue

// Notifier relays vote events to a Discord webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

var _ ports.Notifier = (*Notifier)(nil)

type webhookMessage struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []embedField `json:"fields"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

func (n *Notifier) Notify(ctx context.Context, event ports.VoteEvent) error {
	message := webhookMessage{
		Username: "Feature Vote Bot",
		Embeds: []embed{
			{
				Title: "New vote!",
				Color: embedColor,
				Fields: []embedField{
					{Name: "Feature", Value: event.Feature.Title, Inline: true},
					{Name: "Description", Value: event.Feature.Description},
					{Name: "Installation", Value: event.InstallationID, Inline: true},
				},
			},
		},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%w: encoding webhook payload: %w", domain.ErrNotifyFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotifyFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotifyFailed, err)
	}
	defer resp.Body.Close()

	// Discord answers 204 on success; accept any 2xx.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: webhook returned status %d", domain.ErrNotifyFailed, resp.StatusCode)
	}
	return nil
}
