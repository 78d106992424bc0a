package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/maymar/testimonials/internal/testimonial"
)

type EmailConfig struct {
	BaseURL    string
	Username   string
	Password   string
	TemplateID int
	To         string
	AdminURL   string
}

// Email sends a transactional message through a Listmonk instance.
type Email struct {
	config EmailConfig
	http   *http.Client
}

// NewEmail returns nil unless both the Listmonk URL and a recipient are set.
func NewEmail(cfg EmailConfig) *Email {
	if cfg.BaseURL == "" || cfg.To == "" {
		return nil
	}
	return &Email{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

type txRequest struct {
	SubscriberEmail string            `json:"subscriber_email"`
	TemplateID      int               `json:"template_id"`
	Data            map[string]string `json:"data"`
	ContentType     string            `json:"content_type"`
}

func (e *Email) TestimonialSubmitted(ctx context.Context, t testimonial.Testimonial) error {
	body := txRequest{
		SubscriberEmail: e.config.To,
		TemplateID:      e.config.TemplateID,
		Data: map[string]string{
			"videoURL":    t.VideoURL,
			"submittedAt": t.CreatedAt.UTC().Format(time.RFC1123),
			"adminURL":    e.config.AdminURL,
		},
		ContentType: "html",
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/api/tx", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(e.config.Username, e.config.Password)

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listmonk returned status %d", resp.StatusCode)
	}
	return nil
}
