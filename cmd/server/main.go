package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-studio/internal/api"
	"github.com/p-n-ai/pai-studio/internal/authoring"
	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/media"
	"github.com/p-n-ai/pai-studio/internal/notify"
	"github.com/p-n-ai/pai-studio/internal/platform/cache"
	"github.com/p-n-ai/pai-studio/internal/platform/config"
	"github.com/p-n-ai/pai-studio/internal/platform/database"
	"github.com/p-n-ai/pai-studio/internal/store"
)

const sessionIdle = 2 * time.Hour

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger, err := newLogger(os.Stdout, cfg.Log)
	if err != nil {
		slog.Error("invalid log config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go a.pruneSessions(ctx, time.Minute)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	// Websocket streams are hijacked and not tracked by Shutdown.
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

type app struct {
	handler http.Handler
	service *authoring.Service
	hub     *notify.Hub
	closers []func()
}

// newApp wires the store, cache, media, notices and HTTP handler from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	checks := map[string]api.HealthChecker{}
	var st store.Store
	events := authoring.EventLogger(authoring.NopEventLogger{})

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		pg, err := store.NewPostgresStore(db.Pool)
		if err != nil {
			a.close()
			return nil, err
		}
		st = pg
		events = authoring.NewPostgresEventLogger(db.Pool)
		checks["database"] = db
	default:
		st = store.NewMemoryStore()
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { c.Close() })
		st = store.NewCachedStore(st, c, cfg.CacheTTL())
		checks["cache"] = c
	}

	if err := seed(ctx, st, cfg.CurriculumPath); err != nil {
		a.close()
		return nil, err
	}

	images, err := media.NewFSStore(cfg.Media.Path, cfg.Media.BaseURL, cfg.Media.MaxBytes)
	if err != nil {
		a.close()
		return nil, err
	}

	a.hub = notify.NewHub(0)
	a.closers = append(a.closers, a.hub.Close)

	a.service, err = authoring.NewService(authoring.ServiceConfig{
		Store:    st,
		Images:   images,
		Events:   events,
		Sessions: authoring.NewSessions(a.hub),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	hcfg := api.Config{
		Service:        a.service,
		Notices:        a.hub,
		Checks:         checks,
		MaxUploadBytes: cfg.Media.MaxBytes,
	}
	// A base URL with a host means images are served from elsewhere.
	if strings.HasPrefix(cfg.Media.BaseURL, "/") {
		hcfg.Media = images.Handler()
		hcfg.MediaPrefix = cfg.Media.BaseURL
	}
	a.handler = api.NewHandler(hcfg)
	return a, nil
}

func seed(ctx context.Context, st store.Store, path string) error {
	if _, err := os.Stat(path); err != nil {
		slog.Info("no seed courses", "path", path)
		return nil
	}
	loader, err := curriculum.NewLoader(path)
	if err != nil {
		return err
	}
	n, err := store.Seed(ctx, st, loader.Courses())
	if err != nil {
		return err
	}
	slog.Info("seed courses stored", "created", n)
	return nil
}

func (a *app) pruneSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.service.Sessions().Prune(sessionIdle); n > 0 {
				slog.Info("idle sessions ended", "count", n)
			}
		}
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
