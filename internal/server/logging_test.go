package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func TestRequestLogger_LogsRequest(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(nil))
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	expectedFields := []string{
		"method=GET",
		"path=/test",
		"status=200",
		"remote_addr=",
		"duration_ms=",
		"request_id=",
		"browser=Safari",
		"mobile=true",
	}
	for _, field := range expectedFields {
		if !bytes.Contains([]byte(output), []byte(field)) {
			t.Errorf("expected log to contain %q, got: %s", field, output)
		}
	}
	if bytes.Contains([]byte(output), []byte("country=")) {
		t.Errorf("expected no country without a GeoIP database, got: %s", output)
	}
}

func TestRequestLogger_SkipsHealthCheck(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(requestLogger(nil))
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if buf.String() != "" {
		t.Errorf("expected no log output for /api/health, got: %s", buf.String())
	}
}

func TestRequestLogger_LogsRedirectStatus(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(requestLogger(nil))
	r.Post("/uploader/discard", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/uploader", http.StatusSeeOther)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/uploader/discard", nil))

	if !bytes.Contains(buf.Bytes(), []byte("status=303")) {
		t.Errorf("expected log to contain status=303, got: %s", buf.String())
	}
}

func TestStatusRecorderUnwraps(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}

	if sr.Unwrap() != rec {
		t.Error("expected Unwrap to return the wrapped writer")
	}
	if err := http.NewResponseController(sr).Flush(); err != nil {
		t.Errorf("expected flush to reach the wrapped writer, got %v", err)
	}
}
