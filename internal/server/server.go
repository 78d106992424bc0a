package server

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maymar/testimonials/internal/docs"
	"github.com/maymar/testimonials/internal/geoip"
	"github.com/maymar/testimonials/internal/ratelimit"
	"github.com/maymar/testimonials/internal/web"
)

const (
	defaultUploadRate  = 1
	defaultUploadBurst = 10
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Pinger      Pinger
	Web         *web.Handler
	StaticFS    fs.FS
	GeoIP       *geoip.Resolver
	BaseURL     string
	MediaOrigin string

	// UploadRate and UploadBurst bound uploader form posts per client.
	UploadRate  float64
	UploadBurst int
}

type Server struct {
	router   chi.Router
	pinger   Pinger
	web      *web.Handler
	staticFS fs.FS
	limiter  *ratelimit.Limiter
	docs     *docs.Docs
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.GeoIP))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:     cfg.BaseURL,
		MediaOrigin: cfg.MediaOrigin,
	}))

	rate, burst := cfg.UploadRate, cfg.UploadBurst
	if rate <= 0 {
		rate = defaultUploadRate
	}
	if burst <= 0 {
		burst = defaultUploadBurst
	}

	s := &Server{
		router:   r,
		pinger:   cfg.Pinger,
		web:      cfg.Web,
		staticFS: cfg.StaticFS,
		limiter:  ratelimit.NewLimiter(rate, burst),
		docs:     docs.New(cfg.BaseURL),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/docs", s.docs.HandleDocs)
	s.router.Get("/api/docs/openapi.yaml", s.docs.HandleSpec)

	if s.staticFS != nil {
		s.router.Handle("/static/*", http.StripPrefix("/static", newStaticFileServer(s.staticFS)))
	}

	if s.web != nil {
		s.web.Routes(s.router, s.limiter.Middleware)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"store unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
