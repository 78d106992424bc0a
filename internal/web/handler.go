// Package web renders the public site, the uploader dialog and the admin
// listing, and routes visitor actions to their submission flow.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maymar/testimonials/internal/httputil"
	"github.com/maymar/testimonials/internal/listing"
	"github.com/maymar/testimonials/internal/spool"
	"github.com/maymar/testimonials/internal/submission"
	"github.com/maymar/testimonials/internal/testimonial"
	"github.com/maymar/testimonials/internal/validate"
)

const (
	// maxSelectBody leaves room for multipart framing around a 100 MiB file.
	maxSelectBody = validate.MaxVideoBytes + 1<<20

	defaultSubmitWait = time.Second
	heartbeatInterval = 25 * time.Second
)

type Config struct {
	Sessions *Sessions
	Spool    *spool.Spool
	Lister   *listing.Lister
	Store    testimonial.Store

	// SubmitWait is how long a submit request waits for the outcome before
	// redirecting to the in-progress view.
	SubmitWait time.Duration
}

type Handler struct {
	sessions   *Sessions
	spool      *spool.Spool
	lister     *listing.Lister
	store      testimonial.Store
	submitWait time.Duration
}

func NewHandler(cfg Config) *Handler {
	wait := cfg.SubmitWait
	if wait <= 0 {
		wait = defaultSubmitWait
	}
	return &Handler{
		sessions:   cfg.Sessions,
		spool:      cfg.Spool,
		lister:     cfg.Lister,
		store:      cfg.Store,
		submitWait: wait,
	}
}

// Routes mounts the page routes. limit wraps the uploader's form posts.
func (h *Handler) Routes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Get("/", h.Landing)
	r.Get("/admin", h.Admin)
	r.Get("/api/testimonials", h.ListJSON)

	r.Route("/uploader", func(r chi.Router) {
		r.Get("/", h.Uploader)
		r.Get("/preview", h.Preview)
		r.Get("/events", h.Events)

		r.Group(func(r chi.Router) {
			if limit != nil {
				r.Use(limit)
			}
			r.Post("/open", h.Open)
			r.Post("/select", h.Select)
			r.Post("/discard", h.Discard)
			r.Post("/submit", h.Submit)
			r.Post("/close", h.Close)
		})
	})
}

func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	page := h.landing(r)
	if sess, ok := h.sessions.Lookup(r); ok {
		page.Live = liveFrom(sess.Announcements.Take())
	}
	h.render(w, "landing", page)
}

func (h *Handler) Uploader(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Ensure(w, r)
	page := h.landing(r)
	page.Live = liveFrom(sess.Announcements.Take())
	page.Uploader = uploaderFor(sess.Flow.State())
	h.render(w, "landing", page)
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Ensure(w, r)
	sess.Announcements.Announce("Opening video uploader.")
	httputil.Redirect(w, r, "/uploader")
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Ensure(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxSelectBody)

	part, err := videoPart(r)
	if err != nil {
		slog.Warn("web: unreadable upload form", "session", sess.ID, "error", err)
		httputil.Redirect(w, r, "/uploader")
		return
	}
	defer func() { _ = part.Close() }()

	err = sess.Flow.Select(r.Context(), submission.FileInput{
		Name:        part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Size:        declaredSize(part),
		Body:        part,
	})
	var verr *submission.ValidationError
	switch {
	case err == nil, errors.As(err, &verr):
	case errors.Is(err, submission.ErrBusy), errors.Is(err, submission.ErrClosed):
		slog.Info("web: selection ignored", "session", sess.ID, "reason", err)
	default:
		slog.Error("web: failed to store selected file", "session", sess.ID, "error", err)
	}
	httputil.Redirect(w, r, "/uploader")
}

func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.sessions.Lookup(r); ok {
		if err := sess.Flow.Discard(); err != nil {
			slog.Info("web: discard ignored", "session", sess.ID, "reason", err)
		}
	}
	httputil.Redirect(w, r, "/uploader")
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Lookup(r)
	if !ok {
		httputil.Redirect(w, r, "/uploader")
		return
	}

	done, err := sess.Flow.Start(context.WithoutCancel(r.Context()))
	if err != nil {
		slog.Info("web: submit ignored", "session", sess.ID, "reason", err)
		httputil.Redirect(w, r, "/uploader")
		return
	}

	select {
	case <-done:
	case <-time.After(h.submitWait):
	case <-r.Context().Done():
	}
	httputil.Redirect(w, r, "/uploader")
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Lookup(r)
	if !ok {
		httputil.Redirect(w, r, "/")
		return
	}
	if err := sess.Flow.Close(); err != nil {
		httputil.Redirect(w, r, "/uploader")
		return
	}
	httputil.Redirect(w, r, "/")
}

// Preview streams the file the visitor selected back to their video element.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ref := submission.FileOf(sess.Flow.State())
	if ref == nil {
		http.NotFound(w, r)
		return
	}

	f, ref, err := h.spool.Open(ref.ID)
	if err != nil {
		if !errors.Is(err, spool.ErrNotFound) {
			slog.Error("web: failed to open preview", "session", sess.ID, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", ref.ContentType)
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, ref.Name, time.Time{}, f)
}

// Events streams the session's announcements as server-sent events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Lookup(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Warn("web: event stream not supported", "error", err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		case msg := <-sess.Announcements.C():
			if err := writeEvent(w, "announce", msg); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// Admin sends the loading panel before querying the store, then the result.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	nonce := httputil.NonceOf(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := pageTemplates.ExecuteTemplate(w, "admin-start", newAdminPage(nonce, listing.Loading{})); err != nil {
		slog.Error("web: failed to render admin page", "error", err)
		return
	}
	_ = http.NewResponseController(w).Flush()

	if err := pageTemplates.ExecuteTemplate(w, "admin-result", newAdminPage(nonce, h.lister.Load(r.Context()))); err != nil {
		slog.Error("web: failed to render admin results", "error", err)
	}
}

func (h *Handler) ListJSON(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.WriteError(w, http.StatusBadGateway, "failed to load testimonials")
		return
	}
	rows, err := h.store.ListNewestFirst(r.Context())
	if err != nil {
		slog.Error("web: failed to list testimonials", "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "failed to load testimonials")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) landing(r *http.Request) landingPage {
	return landingPage{
		Nonce:      httputil.NonceOf(r.Context()),
		Title:      siteTitle,
		ClearAfter: clearAfterMillis(),
		Year:       currentYear(),
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("web: failed to render page", "template", name, "error", err)
	}
}

func uploaderFor(state submission.State) *uploaderView {
	view := &uploaderView{Phase: submission.PhaseOf(state)}
	switch st := state.(type) {
	case submission.Idle:
		view.Notice = st.Notice
	case submission.Submitting:
		view.Submitting = true
		view.Progress = st.Progress
	case submission.Failed:
		view.Reason = st.Reason
	}
	if ref := submission.FileOf(state); ref != nil {
		view.FileName = ref.Name
		view.SizeMB = fmt.Sprintf("%.2f", ref.SizeMB())
		view.PreviewURL = "/uploader/preview?v=" + ref.ID
	}
	return view
}

// videoPart advances the multipart stream to the "video" field so the file
// is copied to the spool without being buffered first.
func videoPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("no video field in form")
			}
			return nil, err
		}
		if part.FormName() == "video" && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

// declaredSize reads an optional size parameter some clients put on the
// part's Content-Disposition. Browsers normally omit it.
func declaredSize(part *multipart.Part) int64 {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return 0
	}
	var size int64
	if _, err := fmt.Sscan(params["size"], &size); err != nil || size < 0 {
		return 0
	}
	return size
}

func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
