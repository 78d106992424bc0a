// Package testimonial persists the metadata row recorded for each submitted
// video. Rows are only ever inserted and listed.
package testimonial

import (
	"context"
	"errors"
	"time"
)

var ErrNotConfigured = errors.New("metadata store not configured")

type Testimonial struct {
	ID        string    `json:"id"`
	VideoURL  string    `json:"video_url" validate:"required,url"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
}

type Store interface {
	Insert(ctx context.Context, videoURL string, createdAt time.Time) (Testimonial, error)
	ListNewestFirst(ctx context.Context) ([]Testimonial, error)
}
