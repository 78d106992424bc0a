package validate

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxVideoBytes is the largest testimonial video accepted, inclusive.
const MaxVideoBytes int64 = 100 * 1024 * 1024

const (
	MsgInvalidVideoType = "Please select a valid video file"
	MsgVideoTooLarge    = "Video file is too large. Maximum size is 100MB"
)

// VideoFile checks a selected file before it ever reaches the network and
// returns the message to show the visitor, or "" when the file is acceptable.
func VideoFile(contentType string, size int64) string {
	if !IsVideoType(contentType) {
		return MsgInvalidVideoType
	}
	if size > MaxVideoBytes {
		return MsgVideoTooLarge
	}
	return ""
}

func IsVideoType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/")
}

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// Struct runs `validate` tag rules on v.
func Struct(v any) error {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValidator.Struct(v)
}
