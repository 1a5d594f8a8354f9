// Package main is the entry point for the Footsteps API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pkordes/footsteps/internal/auth"
	"github.com/pkordes/footsteps/internal/config"
	"github.com/pkordes/footsteps/internal/handler"
	"github.com/pkordes/footsteps/internal/metrics"
	"github.com/pkordes/footsteps/internal/middleware"
	"github.com/pkordes/footsteps/internal/repo"
	"github.com/pkordes/footsteps/internal/service"
	"github.com/pkordes/footsteps/internal/storage"
	"github.com/pkordes/footsteps/migrations"
	"github.com/pkordes/footsteps/openapi"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.AutoMigrate {
		db := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(ctx, db)
		db.Close()
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", applied)
	}

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// --- Object storage ---------------------------------------------------
	store, err := storage.NewS3Store(ctx, storage.Options{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		slog.Error("failed to configure object storage", "error", err)
		os.Exit(1)
	}
	resolver := storage.NewResolver(store, cfg.SignedURLTTL, collector)

	// --- Services ---------------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	photoRepo := repo.NewPhotoRepo(pool)

	srv := handler.NewServer(
		service.NewTripService(tripRepo, resolver),
		service.NewPhotoService(tripRepo, photoRepo, store, resolver, collector),
		service.NewDashboardService(tripRepo, photoRepo, resolver),
	)

	uploadLimiter := middleware.NewRateLimiter(cfg.UploadRatePerMinute)
	go uploadLimiter.Run(ctx, time.Minute, 10*time.Minute)

	// --- Router -----------------------------------------------------------
	router := handler.NewRouter(srv, handler.RouterConfig{
		Logger:         logger,
		Verifier:       auth.NewVerifier([]byte(cfg.JWTSecret)),
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadLimiter:  uploadLimiter,
		Metrics:        metrics.Handler(reg),
		OpenAPI:        openapi.Document,
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// The read window is sized for a full upload on a slow link.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
