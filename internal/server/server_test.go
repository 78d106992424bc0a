package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/maymar/testimonials/internal/announce"
	"github.com/maymar/testimonials/internal/listing"
	"github.com/maymar/testimonials/internal/server"
	"github.com/maymar/testimonials/internal/spool"
	"github.com/maymar/testimonials/internal/submission"
	"github.com/maymar/testimonials/internal/testimonial"
	"github.com/maymar/testimonials/internal/web"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func newServerWithWeb(t *testing.T, cfg server.Config) *server.Server {
	t.Helper()
	sp, err := spool.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sp.Close() })

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(func() { mock.Close() })
	store := testimonial.NewPostgresStore(mock)

	sessions := web.NewSessions(time.Hour, false, func(a announce.Announcer) *submission.Flow {
		return submission.New(submission.Deps{Spool: sp, Store: store, Announcer: a})
	})
	cfg.Web = web.NewHandler(web.Config{
		Sessions: sessions,
		Spool:    sp,
		Lister:   &listing.Lister{Store: store},
		Store:    store,
	})
	cfg.StaticFS = fstest.MapFS{
		"app.js": {Data: []byte("console.log('app')")},
	}
	return server.New(cfg)
}

func executeRequest(srv *server.Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointReturnsOK(t *testing.T) {
	srv := server.New(server.Config{})
	rec := executeRequest(srv, http.MethodGet, "/api/health")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("expected body %q, got %q", `{"status":"ok"}`, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type %q, got %q", "application/json", ct)
	}
}

func TestHealthEndpointWithPingFailure(t *testing.T) {
	srv := server.New(server.Config{Pinger: &mockPinger{err: errors.New("connection refused")}})
	rec := executeRequest(srv, http.MethodGet, "/api/health")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	expected := `{"status":"unhealthy","error":"store unreachable"}`
	if rec.Body.String() != expected {
		t.Errorf("expected body %q, got %q", expected, rec.Body.String())
	}
}

func TestHealthEndpointPingsDatabase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	defer mock.Close()
	mock.ExpectPing()

	srv := server.New(server.Config{Pinger: mock})
	rec := executeRequest(srv, http.MethodGet, "/api/health")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHealthEndpointWrongMethodReturnsMethodNotAllowed(t *testing.T) {
	srv := server.New(server.Config{})
	rec := executeRequest(srv, http.MethodPost, "/api/health")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
}

func TestPagesNotRegisteredWithoutWeb(t *testing.T) {
	srv := server.New(server.Config{})

	if rec := executeRequest(srv, http.MethodGet, "/admin"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without web handler, got %d", rec.Code)
	}
}

func TestLandingPageCarriesNonce(t *testing.T) {
	srv := newServerWithWeb(t, server.Config{MediaOrigin: "https://res.cloudinary.com"})
	rec := executeRequest(srv, http.MethodGet, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	csp := rec.Header().Get("Content-Security-Policy")
	start := strings.Index(csp, "'nonce-")
	if start < 0 {
		t.Fatalf("expected nonce in CSP, got %s", csp)
	}
	nonce := strings.SplitN(csp[start+len("'nonce-"):], "'", 2)[0]
	if !strings.Contains(rec.Body.String(), `nonce="`+nonce+`"`) {
		t.Errorf("expected page to use the CSP nonce %q", nonce)
	}
}

func TestStaticFilesServed(t *testing.T) {
	srv := newServerWithWeb(t, server.Config{})

	rec := executeRequest(srv, http.MethodGet, "/static/app.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("expected JavaScript content type, got %q", ct)
	}

	if rec := executeRequest(srv, http.MethodGet, "/static/missing.js"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing file, got %d", rec.Code)
	}
	if rec := executeRequest(srv, http.MethodGet, "/static/"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for directory, got %d", rec.Code)
	}
}

func TestUploaderPostsAreRateLimited(t *testing.T) {
	srv := newServerWithWeb(t, server.Config{UploadRate: 0.01, UploadBurst: 2})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/uploader/open", nil)
		req.RemoteAddr = "203.0.113.50:1234"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		last = rec.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", last)
	}
}

func TestPageViewsAreNotRateLimited(t *testing.T) {
	srv := newServerWithWeb(t, server.Config{UploadRate: 0.01, UploadBurst: 1})

	for i := 0; i < 5; i++ {
		if rec := executeRequest(srv, http.MethodGet, "/"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRealIPFromForwardedHeader(t *testing.T) {
	srv := newServerWithWeb(t, server.Config{UploadRate: 0.01, UploadBurst: 1})

	post := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/uploader/open", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post("198.51.100.1"); code != http.StatusSeeOther {
		t.Fatalf("expected first post to pass, got %d", code)
	}
	if code := post("198.51.100.2"); code != http.StatusSeeOther {
		t.Errorf("expected a different client to have its own budget, got %d", code)
	}
	if code := post("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected repeat client to be limited, got %d", code)
	}
}

func TestAPIDocsServed(t *testing.T) {
	srv := server.New(server.Config{BaseURL: "https://testimonials.example.org"})

	rec := executeRequest(srv, http.MethodGet, "/api/docs/openapi.yaml")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/testimonials") {
		t.Error("expected spec to describe /api/testimonials")
	}
	if !strings.Contains(rec.Body.String(), "- url: https://testimonials.example.org") {
		t.Error("expected spec to list the base URL as a server")
	}

	rec = executeRequest(srv, http.MethodGet, "/api/docs")
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "cdn.jsdelivr.net") {
		t.Errorf("expected docs CSP to allow the viewer CDN, got %q", csp)
	}
}
