package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maymar/testimonials/internal/announce"
	"github.com/maymar/testimonials/internal/config"
	"github.com/maymar/testimonials/internal/database"
	"github.com/maymar/testimonials/internal/geoip"
	"github.com/maymar/testimonials/internal/listing"
	"github.com/maymar/testimonials/internal/logging"
	"github.com/maymar/testimonials/internal/media"
	"github.com/maymar/testimonials/internal/notify"
	"github.com/maymar/testimonials/internal/server"
	"github.com/maymar/testimonials/internal/spool"
	"github.com/maymar/testimonials/internal/storage"
	"github.com/maymar/testimonials/internal/submission"
	"github.com/maymar/testimonials/internal/testimonial"
	"github.com/maymar/testimonials/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, pinger, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		fatal("metadata store initialization failed", err)
	}
	defer closeStore()

	host, err := newMediaHost(ctx, cfg)
	if err != nil {
		fatal("media host initialization failed", err)
	}

	sp, err := spool.New(cfg.SpoolDir)
	if err != nil {
		fatal("spool initialization failed", err)
	}
	defer func() { _ = sp.Close() }()

	geo := geoip.New(cfg.GeoIPDatabase)
	defer func() { _ = geo.Close() }()

	sessions := web.NewSessions(cfg.SessionTTL, cfg.SecureCookies(), newFlowFactory(sp, host, store, newNotifier(cfg)))

	srv := server.New(server.Config{
		Pinger: pinger,
		Web: web.NewHandler(web.Config{
			Sessions: sessions,
			Spool:    sp,
			Lister:   &listing.Lister{Store: store, Location: listing.LoadLocation(cfg.DisplayTimezone)},
			Store:    store,
		}),
		StaticFS:    web.Static(),
		GeoIP:       geo,
		BaseURL:     cfg.BaseURL,
		MediaOrigin: cfg.MediaOrigin(),
	})

	sessionCtx, sessionCancel := context.WithCancel(context.Background())
	sessionsDone := make(chan struct{})
	go func() {
		sessions.Run(sessionCtx)
		close(sessionsDone)
	}()

	// Uploads of up to 100 MiB over slow links need long read and write windows.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Minute,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("testimonials listening", "port", cfg.Port, "media_backend", cfg.MediaBackend, "postgres", cfg.UsesPostgres())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("http server failed", err)
		}
	}()

	<-shutdownCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	sessionCancel()
	<-sessionsDone
	slog.Info("shutdown complete")
}

// newStore picks Postgres when DATABASE_URL is set and the Supabase REST API
// otherwise. The returned pinger is nil when there is nothing to health-check.
func newStore(ctx context.Context, cfg config.Config) (testimonial.Store, server.Pinger, func(), error) {
	if !cfg.UsesPostgres() {
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			slog.Warn("metadata store not configured; submissions and the admin listing will fail")
		}
		return testimonial.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseAnonKey), nil, func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	slog.Info("database migrations applied")
	return testimonial.NewPostgresStore(db.Pool), db, db.Close, nil
}

func newMediaHost(ctx context.Context, cfg config.Config) (media.Host, error) {
	if cfg.MediaBackend != config.MediaBackendS3 {
		if cfg.CloudinaryCloud == "" || cfg.CloudinaryPreset == "" {
			slog.Warn("cloudinary not configured; uploads will fail")
		}
		return media.NewCloudinary(media.CloudinaryConfig{
			BaseURL:      cfg.CloudinaryBaseURL,
			CloudName:    cfg.CloudinaryCloud,
			UploadPreset: cfg.CloudinaryPreset,
			Folder:       cfg.MediaFolder,
		}), nil
	}

	store, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.S3Endpoint,
		PublicURL: cfg.S3PublicURL,
		Bucket:    cfg.S3Bucket,
		Folder:    cfg.MediaFolder,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Region:    cfg.S3Region,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	slog.Info("storage bucket ready", "bucket", cfg.S3Bucket)
	return store, nil
}

// newFlowFactory builds one submission flow per visitor session.
func newFlowFactory(sp *spool.Spool, host media.Host, store testimonial.Store, notifier notify.Notifier) func(announce.Announcer) *submission.Flow {
	return func(a announce.Announcer) *submission.Flow {
		return submission.New(submission.Deps{
			Spool:     sp,
			Host:      host,
			Store:     store,
			Announcer: a,
			Notifier:  notifier,
		})
	}
}

// newNotifier returns nil when no staff notification channel is configured.
func newNotifier(cfg config.Config) notify.Notifier {
	adminURL := strings.TrimSuffix(cfg.BaseURL, "/") + "/admin"
	var notifiers []notify.Notifier
	if s := notify.NewSlack(cfg.SlackWebhookURL, adminURL); s != nil {
		notifiers = append(notifiers, s)
	}
	if w := notify.NewWebhook(cfg.WebhookURL, cfg.WebhookSecret); w != nil {
		notifiers = append(notifiers, w)
	}
	if e := notify.NewEmail(notify.EmailConfig{
		BaseURL:    cfg.ListmonkURL,
		Username:   cfg.ListmonkUsername,
		Password:   cfg.ListmonkPassword,
		TemplateID: cfg.ListmonkTemplateID,
		To:         cfg.NotifyEmail,
		AdminURL:   adminURL,
	}); e != nil {
		notifiers = append(notifiers, e)
	}
	if len(notifiers) == 0 {
		return nil
	}
	return notify.NewMulti(notifiers...)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
