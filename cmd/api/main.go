package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rafaelduartes/salescope-backend/api/routes"
	"github.com/rafaelduartes/salescope-backend/internal/gateways"
	syncsvc "github.com/rafaelduartes/salescope-backend/internal/sync"
	"github.com/rafaelduartes/salescope-backend/pkg/config"
	"github.com/rafaelduartes/salescope-backend/pkg/crypto"
	"github.com/rafaelduartes/salescope-backend/pkg/db"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/migrate"
	"github.com/rafaelduartes/salescope-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cipher, err := crypto.NewSecretBox(cfg.Crypto.CredentialKey)
	if err != nil {
		logg.Error(context.Background(), "failed to load credential key", err)
		os.Exit(1)
	}

	gatewayRepo := gateways.NewRepository(dbClient.DB())
	syncRepo := syncsvc.NewRepository(dbClient.DB())

	reconciler, err := syncsvc.NewReconciler(syncRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}
	rebuilder, err := syncsvc.NewAggregateRebuilder(syncRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create aggregate rebuilder", err)
		os.Exit(1)
	}
	orchestrator, err := syncsvc.NewOrchestrator(syncsvc.OrchestratorParams{
		Gateways:   gatewayRepo,
		Factory:    syncsvc.NewProviderFactory(cfg.Ventra, cfg.Sync, logg),
		Cipher:     cipher,
		Reconciler: reconciler,
		Rebuilder:  rebuilder,
		SyncConfig: cfg.Sync,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync orchestrator", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			prometheus.DefaultGatherer,
			orchestrator,
			gatewayRepo,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
