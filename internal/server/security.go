package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/maymar/testimonials/internal/httputil"
)

type SecurityConfig struct {
	BaseURL string
	// MediaOrigin is where stored videos are played from, e.g. https://res.cloudinary.com.
	MediaOrigin string
}

// contentPolicy allows inline blocks only with the response's nonce and media
// only from this site, blob previews and the media host.
func contentPolicy(nonce httputil.Nonce, mediaOrigin string) string {
	var p httputil.Policy
	p.Add("default-src", "'self'").
		Add("img-src", "'self'", "data:").
		Add("media-src", "'self'", "blob:", mediaOrigin).
		Add("script-src", "'self'", nonce.Source()).
		Add("style-src", "'self'", nonce.Source()).
		Add("connect-src", "'self'").
		Add("form-action", "'self'").
		Add("frame-ancestors", "'none'")
	return p.String()
}

func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := httputil.NewNonce()
			if err != nil {
				slog.Error("security: nonce unavailable", "error", err)
				httputil.WriteError(w, http.StatusInternalServerError, "internal error")
				return
			}

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			w.Header().Set("Content-Security-Policy", contentPolicy(nonce, cfg.MediaOrigin))
			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r.WithContext(httputil.WithNonce(r.Context(), nonce)))
		})
	}
}
