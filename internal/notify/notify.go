// Package notify tells staff that a new testimonial has been saved.
package notify

import (
	"context"
	"log/slog"

	"github.com/maymar/testimonials/internal/testimonial"
)

const EventSubmitted = "testimonial.submitted"

type Notifier interface {
	TestimonialSubmitted(ctx context.Context, t testimonial.Testimonial) error
}

// Multi fans a notification out to every notifier. Failures are logged and do
// not stop the remaining notifiers.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) TestimonialSubmitted(ctx context.Context, t testimonial.Testimonial) error {
	for _, n := range m.notifiers {
		if err := n.TestimonialSubmitted(ctx, t); err != nil {
			slog.Error("notify: testimonial notification failed", "id", t.ID, "error", err)
		}
	}
	return nil
}
