package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maymar/testimonials/internal/announce"
	"github.com/maymar/testimonials/internal/httputil"
	"github.com/maymar/testimonials/internal/submission"
)

const sessionCookie = "testimonial_session"

// Session is one visitor's uploader: a submission flow and the channel its
// announcements are delivered on.
type Session struct {
	ID            string
	Flow          *submission.Flow
	Announcements *announce.Channel

	lastSeen time.Time
}

// Sessions tracks visitors by cookie. Sessions idle for longer than the TTL are
// abandoned, which releases any file they still hold.
type Sessions struct {
	mu      sync.Mutex
	byID    map[string]*Session
	ttl     time.Duration
	secure  bool
	now     func() time.Time
	newFlow func(announce.Announcer) *submission.Flow
}

func NewSessions(ttl time.Duration, secure bool, newFlow func(announce.Announcer) *submission.Flow) *Sessions {
	return &Sessions{
		byID:    make(map[string]*Session),
		ttl:     ttl,
		secure:  secure,
		now:     time.Now,
		newFlow: newFlow,
	}
}

// Lookup returns the session named by the request cookie, if it is still live.
func (s *Sessions) Lookup(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[cookie.Value]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

// Ensure returns the visitor's session, starting a new one and setting the
// cookie when there is none.
func (s *Sessions) Ensure(w http.ResponseWriter, r *http.Request) *Session {
	if sess, ok := s.Lookup(r); ok {
		return sess
	}

	ch := announce.NewChannel()
	sess := &Session{
		ID:            uuid.NewString(),
		Flow:          s.newFlow(ch),
		Announcements: ch,
		lastSeen:      s.now(),
	}

	s.mu.Lock()
	s.byID[sess.ID] = sess
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure || httputil.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Sweep abandons and forgets sessions idle for longer than the TTL.
func (s *Sessions) Sweep() int {
	now := s.now()

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.byID {
		if now.Sub(sess.lastSeen) > s.ttl {
			expired = append(expired, sess)
			delete(s.byID, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Flow.Abandon()
	}
	if len(expired) > 0 {
		slog.Info("web: expired visitor sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then abandons every session.
func (s *Sessions) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.abandonAll()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Sessions) abandonAll() {
	s.mu.Lock()
	all := s.byID
	s.byID = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Flow.Abandon()
	}
}
