package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"github.com/maymar/testimonials/internal/geoip"
	"github.com/maymar/testimonials/internal/httputil"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger logs one line per request. The event stream is logged when it
// closes, so its duration is the connection lifetime.
func requestLogger(geo *geoip.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if ua := r.UserAgent(); ua != "" {
				parsed := useragent.New(ua)
				browser, _ := parsed.Browser()
				attrs = append(attrs, "browser", browser, "mobile", parsed.Mobile())
			}
			if country := geo.Country(httputil.ClientIP(r)); country != "" {
				attrs = append(attrs, "country", country)
			}

			slog.Info("http request", attrs...)
		})
	}
}
