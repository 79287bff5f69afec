package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekit/api/internal/app/migrate"
	httpx "github.com/gatekit/api/internal/http"
	"github.com/gatekit/api/internal/repository/postgres"
	"github.com/gatekit/api/internal/service/auth"
	"github.com/gatekit/api/pkg/config"
	"github.com/gatekit/api/pkg/crypto"
	"github.com/gatekit/api/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Up(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	if cfg.SeedDemoUser {
		if err := seedDemoUser(ctx, repo, cfg); err != nil {
			log.Error("demo user seeding failed", "error", err)
			os.Exit(1)
		}
		log.Info("demo user ensured", "username", cfg.DemoUsername)
	}

	authSvc := auth.New(repo, log, cfg)
	router := httpx.NewRouter(log, authSvc, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// seedDemoUser inserts the bootstrap account if the username is free.
func seedDemoUser(ctx context.Context, repo *postgres.Repository, cfg config.APIConfig) error {
	hash, err := crypto.HashPassword(cfg.DemoPassword)
	if err != nil {
		return err
	}
	return repo.EnsureDemoUser(ctx, cfg.DemoUsername, cfg.DemoEmail, hash)
}
