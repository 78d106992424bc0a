package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maymar/testimonials/internal/announce"
	"github.com/maymar/testimonials/internal/spool"
	"github.com/maymar/testimonials/internal/submission"
)

func newTestSessions(t *testing.T, ttl time.Duration) (*Sessions, *spool.Spool) {
	t.Helper()
	sp, err := spool.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sp.Close() })
	sessions := NewSessions(ttl, false, func(a announce.Announcer) *submission.Flow {
		return submission.New(submission.Deps{Spool: sp, Announcer: a})
	})
	return sessions, sp
}

func TestEnsureCreatesSessionOnce(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Minute)

	rec := httptest.NewRecorder()
	first := sessions.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != first.ID {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	second := sessions.Ensure(rec, req)

	if second != first {
		t.Error("expected the existing session to be reused")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no new cookie for an existing session")
	}
	if sessions.Len() != 1 {
		t.Errorf("expected 1 session, got %d", sessions.Len())
	}
}

func TestEnsureMarksCookieSecureOverHTTPS(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	rec := httptest.NewRecorder()
	sessions.Ensure(rec, req)

	if header := rec.Header().Get("Set-Cookie"); !strings.Contains(header, "Secure") {
		t.Errorf("expected Secure cookie, got %q", header)
	}
}

func TestLookupUnknownCookie(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "missing"})

	if _, ok := sessions.Lookup(req); ok {
		t.Error("expected unknown session to be rejected")
	}
}

func TestSweepReleasesExpiredSessionFiles(t *testing.T) {
	sessions, sp := newTestSessions(t, time.Minute)
	clock := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return clock }

	sess := sessions.Ensure(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	err := sess.Flow.Select(context.Background(), submission.FileInput{
		Name: "story.mp4", ContentType: "video/mp4", Body: strings.NewReader("frames"),
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if n := sessions.Sweep(); n != 0 {
		t.Fatalf("expected nothing to expire yet, got %d", n)
	}

	clock = clock.Add(2 * time.Minute)
	if n := sessions.Sweep(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if sp.Len() != 0 {
		t.Errorf("expected spooled file released, got %d", sp.Len())
	}
	if sessions.Len() != 0 {
		t.Errorf("expected session removed, got %d", sessions.Len())
	}
}

func TestRunAbandonsSessionsOnShutdown(t *testing.T) {
	sessions, sp := newTestSessions(t, time.Hour)
	sess := sessions.Ensure(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	_ = sess.Flow.Select(context.Background(), submission.FileInput{
		Name: "story.mp4", ContentType: "video/mp4", Body: strings.NewReader("frames"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sessions.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if sp.Len() != 0 {
		t.Errorf("expected spooled file released, got %d", sp.Len())
	}
}
