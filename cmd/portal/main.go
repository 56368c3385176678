package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"atelier/portal/internal/app"
	"atelier/portal/internal/backend"
	"atelier/portal/internal/board"
	"atelier/portal/internal/catalog"
	"atelier/portal/internal/config"
	"atelier/portal/internal/editor"
	"atelier/portal/internal/logging"
	"atelier/portal/internal/session"
	"atelier/portal/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	checks := map[string]app.Checker{}

	var pg *store.PostgresStore
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal(logger, "database connection failed", err)
		}
		defer db.Close()
		if err := store.ApplyMigrations(ctx, db, os.DirFS(cfg.MigrationsDir), logger); err != nil {
			fatal(logger, "migrations failed", err)
		}
		pg = store.NewPostgresStore(db)
		checks["postgres"] = pg
	}

	var sessionStore session.Store
	switch {
	case strings.TrimSpace(cfg.RedisURL) != "":
		logger.Info("using redis for session storage")
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			fatal(logger, "redis connection failed", err)
		}
		defer redisStore.Close()
		sessionStore = redisStore
	case pg != nil:
		logger.Info("using postgres for session storage")
		sessionStore = pg
	default:
		fatal(logger, "no session storage configured", errors.New("set REDIS_URL or DATABASE_URL"))
	}

	var journal editor.Journal
	if pg != nil {
		journal = pg
	} else {
		logger.Warn("DATABASE_URL not set, autosave journal kept in memory")
		journal = editor.NewMemoryJournal(1000)
	}

	upstream := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger).WithDevUser(cfg.DevUserEmail)
	if backend.DevAuthEnabled && cfg.DevUserEmail != "" {
		logger.Warn("development auth header enabled", "email", cfg.DevUserEmail)
	}

	sessions := session.NewManager(
		sessionStore,
		session.NewResolver(upstream, cfg.SyncTimeout, logger),
		[]byte(cfg.TokenSecret),
		cfg.SessionTTL,
		logger,
	)
	checks["sessions"] = sessions

	standards := catalog.New(upstream, cfg.CatalogCacheTTL, logger)
	service := app.NewService(app.Deps{
		Sessions: sessions,
		Editors: editor.NewRegistry(editor.Deps{
			Upstream: upstream,
			Choices:  standards,
			Journal:  journal,
			Logger:   logger,
		}),
		Catalog: standards,
		Boards:  board.NewService(upstream, logger),
		Checks:  checks,
		Logger:  logger,
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("atelier portal listening", "addr", cfg.Addr, "backend", cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server failed", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
