// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"polyglot/internal/audit"
	"polyglot/internal/cache"
	"polyglot/internal/config"
	"polyglot/internal/handler"
	"polyglot/internal/logging"
	"polyglot/internal/middleware"
	"polyglot/internal/model"
	"polyglot/internal/routing"
	"polyglot/internal/scheduler"
	"polyglot/internal/service"
	"polyglot/internal/store"
	"polyglot/internal/taxonomy"
	"polyglot/internal/translation"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "polyglot - translation consistency engine\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_DB_PATH         SQLite database path (default: ./data/polyglot.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  POLYGLOT_AUDIT_SCHEDULE  Cron expression for periodic integrity scans\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("polyglot %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	queries := store.New(db)

	// Translation layer
	groups := cache.New(5*time.Minute, 10000)
	resolver := translation.NewResolver(queries, groups)
	fields := &translation.StaticFieldSchema{
		ByType: map[string][]string{
			model.ContentTypePage: {"subtitle", "hero_image"},
			model.ContentTypePost: {"subtitle"},
		},
	}
	contentTranslations := translation.NewContentService(queries, groups, fields)
	termTranslations := translation.NewTermService(queries, groups)

	// Taxonomy synchronization and content saves
	synchronizer := taxonomy.NewSynchronizer(queries, resolver, taxonomy.DefaultTaxonomies)
	contentService := service.NewContentService(db, synchronizer)

	// Localized routing. Settings come through the settings service so the
	// languages table feeds the pattern table from the first request on.
	settingsService := service.NewSettingsService(db, nil)
	settings, err := settingsService.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	routes := routing.NewResolver(settings, []string{model.ContentTypePage, model.ContentTypePost})
	settingsService.BindRoutes(routes)

	// Integrity audit
	registry := audit.NewRegistry(queries)
	registry.Register(audit.NewMissingLanguageCheck(queries))
	registry.Register(audit.NewDuplicateLanguageCheck(queries))
	registry.Register(audit.NewSettingsCheck(queries))

	sched := scheduler.New(registry, logger)
	if err := sched.Start(cfg.AuditSchedule); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP routes
	apiHandler := handler.NewAPIHandler(
		db,
		contentTranslations,
		termTranslations,
		resolver,
		contentService,
		settingsService,
		routes,
		registry,
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		apiHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
