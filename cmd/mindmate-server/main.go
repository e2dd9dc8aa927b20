package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/mindmate-app/mindmate/internal/api"
	"github.com/mindmate-app/mindmate/internal/auth"
	"github.com/mindmate-app/mindmate/internal/catalog"
	"github.com/mindmate-app/mindmate/internal/cleanup"
	"github.com/mindmate-app/mindmate/internal/config"
	"github.com/mindmate-app/mindmate/internal/logging"
	"github.com/mindmate-app/mindmate/internal/revocation"
	"github.com/mindmate-app/mindmate/internal/storage"
)

const version = "1.0.0"

func main() {
	printStartUpBanner()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	defer logCloser.Close()

	slog.Info("starting mindmate-server",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("database connected successfully")

	migrations, err := storage.Migrations(cfg.Database.MigrationsDir)
	if err != nil {
		slog.Error("failed to open migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.RunMigrations(initCtx, repo.Pool(), migrations); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Revoked tokens live in Redis when configured, otherwise in memory
	cleaner := cleanup.NewCleaner(cfg.Cleanup.Interval)
	var revoked revocation.Store
	if cfg.Redis.Address != "" {
		revoked, err = revocation.NewRedisStore(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to create revocation store", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("REDIS_ADDRESS not set, revoked tokens are kept in memory")
		mem := revocation.NewMemoryStore()
		cleaner.Register("revocations", mem)
		revoked = mem
	}
	defer revoked.Close()

	quizzes := catalog.NewLoader()
	if cfg.Quizzes.Dir != "" {
		if err := quizzes.LoadFromDir(cfg.Quizzes.Dir); err != nil {
			slog.Error("invalid quiz catalog", "dir", cfg.Quizzes.Dir, "error", err)
			os.Exit(1)
		}
		n, err := quizzes.Seed(initCtx, repo)
		if err != nil {
			slog.Error("failed to seed quizzes", "error", err)
			os.Exit(1)
		}
		slog.Info("quiz catalog seeded", "inserted", n, "available", len(quizzes.List()))
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := api.NewServer(cfg.Server, repo, issuer, revoked)
	cleaner.Register("auth_rate_limiter", server.AuthLimiter())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleaner.Start(ctx)

	// WriteTimeout stays zero so chat websockets are not cut off; plain
	// requests are bounded by the router's timeout middleware
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("mindmate-server stopped")
}

func printStartUpBanner() {
	banner := figure.NewFigure("MindMate", "", true)
	banner.Print()

	fmt.Println("======================================================")
	fmt.Printf("MindMate API (v%s)\n\n", version)
}
