package media

import (
	"context"
	"errors"
	"io"
)

var ErrNotConfigured = errors.New("media host not configured")

type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Asset is a stored video. URL is durable and publicly readable.
type Asset struct {
	URL string `validate:"required,url"`
}

// Host stores uploaded video binaries.
type Host interface {
	Upload(ctx context.Context, u Upload) (Asset, error)
}
