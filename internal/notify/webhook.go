package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maymar/testimonials/internal/testimonial"
)

const maxResponseBodyBytes = 1024

type Event struct {
	Name      string                  `json:"event"`
	Timestamp time.Time               `json:"timestamp"`
	Data      testimonial.Testimonial `json:"data"`
}

// Webhook delivers signed JSON events with a fixed retry schedule.
type Webhook struct {
	url         string
	secret      string
	http        *http.Client
	retryDelays []time.Duration
	now         func() time.Time
}

// NewWebhook returns nil when url is empty.
func NewWebhook(url, secret string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{
		url:         url,
		secret:      secret,
		http:        &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{1 * time.Second, 4 * time.Second},
		now:         time.Now,
	}
}

// SignPayload computes HMAC-SHA256 of the payload using the secret.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (w *Webhook) TestimonialSubmitted(ctx context.Context, t testimonial.Testimonial) error {
	return w.Dispatch(ctx, Event{Name: EventSubmitted, Timestamp: w.now().UTC(), Data: t})
}

// Dispatch sends event, trying once more for every retry delay.
func (w *Webhook) Dispatch(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	signature := SignPayload(w.secret, body)
	maxAttempts := 1 + len(w.retryDelays)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, respBody, err := w.doPost(ctx, body, signature)
		if err == nil && status >= 200 && status < 300 {
			slog.Info("webhook: delivered", "event", event.Name, "status", status, "attempt", attempt)
			return nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("webhook returned status %d", status)
		}
		slog.Warn("webhook: delivery failed", "event", event.Name, "attempt", attempt, "response", respBody, "error", lastErr)

		if attempt < maxAttempts {
			select {
			case <-time.After(w.retryDelays[attempt-1]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

func (w *Webhook) doPost(ctx context.Context, body []byte, signature string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("X-Webhook-Event", EventSubmitted)

	resp, err := w.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	return resp.StatusCode, string(respBytes), nil
}
