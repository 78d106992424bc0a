package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maymar/testimonials/internal/announce"
	"github.com/maymar/testimonials/internal/media"
	"github.com/maymar/testimonials/internal/notify"
	"github.com/maymar/testimonials/internal/spool"
	"github.com/maymar/testimonials/internal/testimonial"
	"github.com/maymar/testimonials/internal/validate"
)

const (
	ProgressUploading = "Uploading video..."
	ProgressSaving    = "Saving testimonial..."

	sniffBytes    = 3072
	notifyTimeout = 30 * time.Second
)

// FileInput is a file picked by the visitor. ContentType is what the browser
// declared; when it is missing the type is detected from the content. Size is
// the declared length, or 0 when the client did not send one.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Deps struct {
	Spool     *spool.Spool
	Host      media.Host
	Store     testimonial.Store
	Announcer announce.Announcer
	Notifier  notify.Notifier
	Now       func() time.Time
}

// Flow drives one visitor's submission from file selection to the stored
// metadata row. Only one upload/insert sequence runs at a time.
type Flow struct {
	spool     *spool.Spool
	host      media.Host
	store     testimonial.Store
	announcer announce.Announcer
	notifier  notify.Notifier
	now       func() time.Time

	mu        sync.Mutex
	state     State
	abandoned bool
}

func New(deps Deps) *Flow {
	f := &Flow{
		spool:     deps.Spool,
		host:      deps.Host,
		store:     deps.Store,
		announcer: deps.Announcer,
		notifier:  deps.Notifier,
		now:       deps.Now,
		state:     Idle{},
	}
	if f.announcer == nil {
		f.announcer = announce.Discard{}
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Select validates and stores a new file, replacing any current selection.
func (f *Flow) Select(ctx context.Context, in FileInput) error {
	f.mu.Lock()
	switch f.state.(type) {
	case Submitting:
		f.mu.Unlock()
		return ErrBusy
	case Submitted:
		f.mu.Unlock()
		return ErrClosed
	}
	f.spool.Release(FileOf(f.state))
	f.state = Idle{}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	contentType, body, err := detectContentType(in.ContentType, in.Body)
	if err != nil {
		return fmt.Errorf("read selected file: %w", err)
	}
	if msg := validate.VideoFile(contentType, in.Size); msg != "" {
		return f.reject(msg)
	}

	ref, err := f.spool.Put(in.Name, contentType, body, validate.MaxVideoBytes)
	if errors.Is(err, spool.ErrTooLarge) {
		return f.reject(validate.MsgVideoTooLarge)
	}
	if err != nil {
		return fmt.Errorf("store selected file: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, idle := f.state.(Idle); !idle || f.abandoned {
		// Another request moved the flow on while this file was being stored.
		f.spool.Release(ref)
		return ErrBusy
	}
	f.state = Selected{File: ref}
	f.announcer.Announce(fmt.Sprintf("Video selected: %s. You can now review and submit.", ref.Name))
	return nil
}

func (f *Flow) reject(msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, idle := f.state.(Idle); idle {
		f.state = Idle{Notice: msg}
	}
	f.announcer.Announce("Error: " + msg)
	return &ValidationError{Message: msg}
}

// Discard drops the current selection and any error, returning to Idle.
func (f *Flow) Discard() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state.(type) {
	case Submitting:
		return ErrBusy
	case Submitted:
		return ErrClosed
	}
	f.spool.Release(FileOf(f.state))
	f.state = Idle{}
	return nil
}

// Close dismisses the uploader. It is refused only while a submission is in
// flight.
func (f *Flow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.state.(Submitting); busy {
		return ErrBusy
	}
	f.spool.Release(FileOf(f.state))
	f.state = Idle{}
	return nil
}

// Abandon is called when the visitor's session ends. A submission in flight
// is allowed to finish; its file is released when it does.
func (f *Flow) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.abandoned = true
	if _, busy := f.state.(Submitting); busy {
		return
	}
	f.spool.Release(FileOf(f.state))
	f.state = Idle{}
}

// Submit uploads the selected file and records it. On failure the selection
// is kept in a Failed state so the visitor can try again. An upload that
// succeeds but cannot be recorded is not removed from the media host.
func (f *Flow) Submit(ctx context.Context) error {
	ref, err := f.begin()
	if err != nil {
		return err
	}
	return f.run(ctx, ref)
}

// Start is Submit without waiting: the state has already moved to Submitting
// when it returns, and the outcome arrives on the channel.
func (f *Flow) Start(ctx context.Context) (<-chan error, error) {
	ref, err := f.begin()
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- f.run(ctx, ref) }()
	return done, nil
}

func (f *Flow) begin() (*spool.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ref *spool.Ref
	switch st := f.state.(type) {
	case Selected:
		ref = st.File
	case Failed:
		ref = st.File
	case Submitting:
		return nil, ErrBusy
	default:
		return nil, ErrNothingSelected
	}
	f.state = Submitting{File: ref, Progress: ProgressUploading}
	f.announcer.Announce("Uploading your testimonial. Please wait.")
	return ref, nil
}

func (f *Flow) run(ctx context.Context, ref *spool.Ref) error {
	asset, err := f.upload(ctx, ref)
	if err != nil {
		slog.Error("submission: upload failed", "file", ref.Name, "bytes", ref.Size, "error", err)
		f.fail(ref, ReasonUpload)
		return &UploadError{Err: err}
	}

	f.mu.Lock()
	f.state = Submitting{File: ref, Progress: ProgressSaving}
	f.mu.Unlock()

	row, err := f.insert(ctx, asset.URL)
	if err != nil {
		slog.Error("submission: metadata insert failed, upload orphaned", "orphaned_url", asset.URL, "error", err)
		f.fail(ref, ReasonPersist)
		return &PersistError{OrphanedURL: asset.URL, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.spool.Release(ref)
	if f.abandoned {
		f.state = Idle{}
	} else {
		f.state = Submitted{Testimonial: row}
	}
	slog.Info("submission: testimonial saved", "id", row.ID, "url", row.VideoURL)
	f.announcer.Announce("Your testimonial has been submitted successfully! Thank you.")
	if f.notifier != nil {
		go f.notify(ctx, row)
	}
	return nil
}

// notify outlives the request context and is bounded by notifyTimeout.
func (f *Flow) notify(ctx context.Context, row testimonial.Testimonial) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := f.notifier.TestimonialSubmitted(ctx, row); err != nil {
		slog.Warn("submission: staff notification failed", "id", row.ID, "error", err)
	}
}

func (f *Flow) upload(ctx context.Context, ref *spool.Ref) (media.Asset, error) {
	if f.host == nil {
		return media.Asset{}, media.ErrNotConfigured
	}

	file, _, err := f.spool.Open(ref.ID)
	if err != nil {
		return media.Asset{}, err
	}
	defer func() { _ = file.Close() }()

	asset, err := f.host.Upload(ctx, media.Upload{
		Name:        ref.Name,
		ContentType: ref.ContentType,
		Size:        ref.Size,
		Body:        file,
	})
	if err != nil {
		return media.Asset{}, err
	}
	if err := validate.Struct(asset); err != nil {
		return media.Asset{}, fmt.Errorf("media host returned unusable URL %q: %w", asset.URL, err)
	}
	return asset, nil
}

func (f *Flow) insert(ctx context.Context, videoURL string) (testimonial.Testimonial, error) {
	if f.store == nil {
		return testimonial.Testimonial{}, testimonial.ErrNotConfigured
	}
	return f.store.Insert(ctx, videoURL, f.now().UTC())
}

func (f *Flow) fail(ref *spool.Ref, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned {
		f.spool.Release(ref)
		f.state = Idle{}
		return
	}
	f.state = Failed{File: ref, Reason: reason}
	f.announcer.Announce(fmt.Sprintf("Error: %s. Please try again.", reason))
}

// detectContentType trusts a declared type unless it is missing or generic,
// in which case the leading bytes are sniffed and put back in front of body.
func detectContentType(declared string, body io.Reader) (string, io.Reader, error) {
	if declared != "" && declared != "application/octet-stream" {
		return declared, body, nil
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]

	detected := mimetype.Detect(head).String()
	return detected, io.MultiReader(bytes.NewReader(head), body), nil
}
