package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rafaelduartes/salescope-backend/internal/cron"
	"github.com/rafaelduartes/salescope-backend/internal/gateways"
	syncsvc "github.com/rafaelduartes/salescope-backend/internal/sync"
	"github.com/rafaelduartes/salescope-backend/pkg/config"
	"github.com/rafaelduartes/salescope-backend/pkg/crypto"
	"github.com/rafaelduartes/salescope-backend/pkg/db"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/metrics"
	"github.com/rafaelduartes/salescope-backend/pkg/migrate"
	"github.com/rafaelduartes/salescope-backend/pkg/redis"
)

const lockKeyFormat = "ssc:sync-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
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

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	syncJob, err := cron.NewGatewaySyncJob(gatewayRepo, orchestrator, syncMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway sync job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Sync.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(syncJob),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Sync.Interval.String(),
	})
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
