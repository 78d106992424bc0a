package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maymar/testimonials/internal/testimonial"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) TestimonialSubmitted(context.Context, testimonial.Testimonial) error {
	r.calls++
	return r.err
}

var sample = testimonial.Testimonial{
	ID:        "7f1c",
	VideoURL:  "https://res.cloudinary.com/demo/video/upload/v1/mct_uploads/story.mp4",
	CreatedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
}

func TestMultiSkipsNilNotifiers(t *testing.T) {
	m := NewMulti(nil, &recordingNotifier{})
	if m.Len() != 1 {
		t.Errorf("expected 1 notifier, got %d", m.Len())
	}
	if NewSlack("", "") != nil {
		t.Error("expected nil Slack client without a webhook URL")
	}
	if NewWebhook("", "secret") != nil {
		t.Error("expected nil webhook without a URL")
	}
}

func TestMultiContinuesAfterFailure(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("unreachable")}
	ok := &recordingNotifier{}

	err := NewMulti(failing, ok).TestimonialSubmitted(context.Background(), sample)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Errorf("expected every notifier called once, got %d and %d", failing.calls, ok.calls)
	}
}
