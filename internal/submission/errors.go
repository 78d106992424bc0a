package submission

import (
	"errors"
	"fmt"
)

var (
	ErrBusy            = errors.New("submission in progress")
	ErrNothingSelected = errors.New("no video selected")
	ErrClosed          = errors.New("testimonial already submitted")
)

const (
	ReasonUpload  = "Failed to upload video"
	ReasonPersist = "Failed to save testimonial"
)

// ValidationError rejects a file before anything is sent over the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) UserMessage() string { return e.Message }

// UploadError means the media host did not return a stored asset. The
// selection is kept so the visitor can retry.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload video: %v", e.Err) }

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) UserMessage() string { return ReasonUpload }

// PersistError means the video was stored but its metadata row was not. The
// asset at OrphanedURL is left in place.
type PersistError struct {
	OrphanedURL string
	Err         error
}

func (e *PersistError) Error() string { return fmt.Sprintf("save testimonial: %v", e.Err) }

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) UserMessage() string { return ReasonPersist }
