package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/maymar/testimonials/internal/testimonial"
)

// Slack posts to an incoming webhook.
type Slack struct {
	webhookURL string
	adminURL   string
	http       *http.Client
}

// NewSlack returns nil when webhookURL is empty. adminURL links the message
// to the admin listing.
func NewSlack(webhookURL, adminURL string) *Slack {
	if webhookURL == "" {
		return nil
	}
	return &Slack{
		webhookURL: webhookURL,
		adminURL:   adminURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type payload struct {
	Blocks []block `json:"blocks"`
}

func (s *Slack) TestimonialSubmitted(ctx context.Context, t testimonial.Testimonial) error {
	headline := fmt.Sprintf(":movie_camera: *New video testimonial*\n<%s|Watch the video>", t.VideoURL)
	footer := "Submitted " + t.CreatedAt.UTC().Format(time.RFC3339)
	if s.adminURL != "" {
		footer += fmt.Sprintf(" • <%s|All testimonials>", strings.TrimSuffix(s.adminURL, "/"))
	}

	return s.postMessage(ctx, payload{
		Blocks: []block{
			{Type: "section", Text: &text{Type: "mrkdwn", Text: headline}},
			{Type: "context", Elements: []text{{Type: "mrkdwn", Text: footer}}},
		},
	})
}

func (s *Slack) postMessage(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}
