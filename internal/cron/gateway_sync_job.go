package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/rafaelduartes/salescope-backend/internal/sync"
	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/metrics"
)

type gatewayLister interface {
	ListActive(ctx context.Context) ([]models.GatewayConfig, error)
}

type gatewaySyncer interface {
	SyncGateway(ctx context.Context, gatewayConfigID uuid.UUID, opts sync.SyncOptions) (*sync.SyncResult, error)
}

// GatewaySyncJob walks every active gateway config and runs the sync
// orchestrator for each, sequentially. One gateway failing never stops the
// others; failures are aggregated into the job's return value for logging.
type GatewaySyncJob struct {
	gateways gatewayLister
	syncer   gatewaySyncer
	metrics  *metrics.SyncMetrics
	logg     *logger.Logger
}

// NewGatewaySyncJob validates collaborators and builds the job.
func NewGatewaySyncJob(gateways gatewayLister, syncer gatewaySyncer, syncMetrics *metrics.SyncMetrics, logg *logger.Logger) (*GatewaySyncJob, error) {
	if gateways == nil {
		return nil, fmt.Errorf("gateway lister required")
	}
	if syncer == nil {
		return nil, fmt.Errorf("syncer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &GatewaySyncJob{
		gateways: gateways,
		syncer:   syncer,
		metrics:  syncMetrics,
		logg:     logg,
	}, nil
}

// Name implements Job.
func (j *GatewaySyncJob) Name() string {
	return "gateway-sync"
}

// Run implements Job.
func (j *GatewaySyncJob) Run(ctx context.Context) error {
	configs, err := j.gateways.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active gateways: %w", err)
	}
	if len(configs) == 0 {
		j.logg.Info(ctx, "no active gateways to sync")
		return nil
	}

	var errs error
	for _, config := range configs {
		gwCtx := j.logg.WithGatewayID(ctx, config.ID.String())

		result, err := j.syncer.SyncGateway(gwCtx, config.ID, sync.SyncOptions{})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("gateway %s: %w", config.ID, err))
			j.logg.Error(gwCtx, "gateway sync aborted", err)
			continue
		}
		j.observe(config, result)
	}
	return errs
}

func (j *GatewaySyncJob) observe(config models.GatewayConfig, result *sync.SyncResult) {
	status := "completed"
	if !result.Success {
		status = "error"
	}
	gatewayType := config.GatewayType.String()
	j.metrics.ObserveRun(gatewayType, status, result.FinishedAt.Sub(result.StartedAt))
	j.metrics.AddRecords(gatewayType, "sales", result.SalesSynced)
	j.metrics.AddRecords(gatewayType, "abandons", result.AbandonsSynced)
	j.metrics.AddRecords(gatewayType, "products", result.ProductsSynced)
}
