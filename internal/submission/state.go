package submission

import (
	"github.com/maymar/testimonials/internal/spool"
	"github.com/maymar/testimonials/internal/testimonial"
)

// State is one of Idle, Selected, Submitting, Failed or Submitted.
type State interface {
	isState()
}

// Idle has no file. Notice holds the message from a rejected selection.
type Idle struct {
	Notice string
}

type Selected struct {
	File *spool.Ref
}

// Submitting holds the file while the upload and insert are in flight.
type Submitting struct {
	File     *spool.Ref
	Progress string
}

// Failed is Selected after an unsuccessful submit; it can be submitted again.
type Failed struct {
	File   *spool.Ref
	Reason string
}

type Submitted struct {
	Testimonial testimonial.Testimonial
}

func (Idle) isState()       {}
func (Selected) isState()   {}
func (Submitting) isState() {}
func (Failed) isState()     {}
func (Submitted) isState()  {}

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSelected  Phase = "selected"
	PhaseSubmitted Phase = "submitted"
)

// PhaseOf maps a state to what the visitor sees: a file picker, a review
// panel, or the thank-you screen.
func PhaseOf(s State) Phase {
	switch s.(type) {
	case Selected, Submitting, Failed:
		return PhaseSelected
	case Submitted:
		return PhaseSubmitted
	default:
		return PhaseIdle
	}
}

// FileOf returns the selected file, or nil when nothing is selected.
func FileOf(s State) *spool.Ref {
	switch st := s.(type) {
	case Selected:
		return st.File
	case Submitting:
		return st.File
	case Failed:
		return st.File
	default:
		return nil
	}
}
