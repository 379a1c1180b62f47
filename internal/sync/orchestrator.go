package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelduartes/salescope-backend/pkg/config"
	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
	pkgerrors "github.com/rafaelduartes/salescope-backend/pkg/errors"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/ventra"
)

// lastSyncMargin is subtracted from the incremental cursor so clock skew
// between this service and the gateway never loses boundary sales.
const lastSyncMargin = 24 * time.Hour

// stuckSyncThreshold bounds how long a SYNCING status is trusted. The status
// guard outlives a process crash, so a row last written before this horizon
// belongs to a run that never finalized and may be reclaimed.
const stuckSyncThreshold = 2 * time.Hour

type gatewayStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.GatewayConfig, error)
	UpdateSyncStatus(ctx context.Context, id uuid.UUID, status enums.SyncStatus) error
	MarkSynced(ctx context.Context, id uuid.UUID, status enums.SyncStatus, syncedAt time.Time) error
	CreateRun(ctx context.Context, gatewayConfigID uuid.UUID, startedAt time.Time) (*models.SyncRun, error)
	FinalizeRun(ctx context.Context, runID uuid.UUID, status enums.SyncRunStatus, recordsSynced int, errorSummary *string, finishedAt time.Time) error
}

type clientFactory interface {
	ClientFor(gatewayType enums.GatewayType, credential string) (GatewayClient, error)
}

type credentialOpener interface {
	Decrypt(ciphertext string) (string, error)
}

type recordReconciler interface {
	ReconcileSales(ctx context.Context, gatewayConfigID uuid.UUID, records []ventra.SaleRecord) (int, error)
	ReconcileAbandons(ctx context.Context, gatewayConfigID uuid.UUID, records []ventra.AbandonRecord) (int, error)
	ReconcileProducts(ctx context.Context, gatewayConfigID uuid.UUID, records []ventra.ProductRecord) (int, error)
}

type aggregateRebuilder interface {
	SeedMissingProducts(ctx context.Context, gatewayConfigID uuid.UUID) (int, error)
	RebuildPlans(ctx context.Context, gatewayConfigID uuid.UUID) error
	RebuildAffiliates(ctx context.Context, gatewayConfigID uuid.UUID) error
	RebuildProductStats(ctx context.Context, gatewayConfigID uuid.UUID) error
}

// Orchestrator drives one gateway's full sync run: fetch phases, derived
// rebuilds, lifecycle status, and the SyncRun audit row. Phases are isolated;
// one failing phase never stops the ones after it.
type Orchestrator struct {
	gateways   gatewayStore
	factory    clientFactory
	cipher     credentialOpener
	reconciler recordReconciler
	rebuilder  aggregateRebuilder
	syncCfg    config.SyncConfig
	logg       *logger.Logger
	now        func() time.Time

	mu       gosync.Mutex
	inflight map[uuid.UUID]struct{}
}

// OrchestratorParams collects the orchestrator's collaborators.
type OrchestratorParams struct {
	Gateways   gatewayStore
	Factory    clientFactory
	Cipher     credentialOpener
	Reconciler recordReconciler
	Rebuilder  aggregateRebuilder
	SyncConfig config.SyncConfig
	Logger     *logger.Logger
}

// NewOrchestrator validates collaborators and builds the orchestrator.
func NewOrchestrator(params OrchestratorParams) (*Orchestrator, error) {
	if params.Gateways == nil {
		return nil, fmt.Errorf("gateway store required")
	}
	if params.Factory == nil {
		return nil, fmt.Errorf("client factory required")
	}
	if params.Cipher == nil {
		return nil, fmt.Errorf("credential cipher required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if params.Rebuilder == nil {
		return nil, fmt.Errorf("aggregate rebuilder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Orchestrator{
		gateways:   params.Gateways,
		factory:    params.Factory,
		cipher:     params.Cipher,
		reconciler: params.Reconciler,
		rebuilder:  params.Rebuilder,
		syncCfg:    params.SyncConfig,
		logg:       params.Logger,
		now:        time.Now,
		inflight:   make(map[uuid.UUID]struct{}),
	}, nil
}

// SyncGateway runs the full phase sequence for one gateway config and returns
// the synchronous result. A missing or disabled config, or a run already in
// flight for the same gateway, aborts before any state is touched.
func (o *Orchestrator) SyncGateway(ctx context.Context, gatewayConfigID uuid.UUID, opts SyncOptions) (*SyncResult, error) {
	ctx = o.logg.WithGatewayID(ctx, gatewayConfigID.String())

	gateway, err := o.gateways.FindByID(ctx, gatewayConfigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gateway config not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gateway config")
	}
	if !gateway.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gateway config is disabled")
	}

	if err := o.acquire(ctx, gateway); err != nil {
		return nil, err
	}
	defer o.release(gatewayConfigID)

	startedAt := o.now().UTC()
	if err := o.gateways.UpdateSyncStatus(ctx, gatewayConfigID, enums.SyncStatusSyncing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark gateway syncing")
	}

	run, err := o.gateways.CreateRun(ctx, gatewayConfigID, startedAt)
	if err != nil {
		o.revertStatus(ctx, gatewayConfigID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open sync run")
	}
	ctx = o.logg.WithSyncRunID(ctx, run.ID.String())

	result := &SyncResult{
		GatewayConfigID: gatewayConfigID,
		SyncRunID:       run.ID,
		StartedAt:       startedAt,
	}

	client, err := o.buildClient(gateway)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("credentials: %v", err))
		o.finalize(ctx, gateway, run.ID, result)
		return result, nil
	}

	salesFrom, salesTo := o.salesWindow(gateway, opts, startedAt)
	fullFrom, fullTo := o.fullWindow(opts, startedAt)

	o.runPhase(ctx, result, "sales", func() (int, error) {
		records, err := client.FetchSales(ctx, salesFrom, salesTo)
		if err != nil {
			return 0, err
		}
		count, err := o.reconciler.ReconcileSales(ctx, gatewayConfigID, records)
		result.SalesSynced = count
		return count, err
	})

	o.runPhase(ctx, result, "abandons", func() (int, error) {
		records, err := client.FetchAbandons(ctx, fullFrom, fullTo)
		if err != nil {
			return 0, err
		}
		count, err := o.reconciler.ReconcileAbandons(ctx, gatewayConfigID, records)
		result.AbandonsSynced = count
		return count, err
	})

	o.runPhase(ctx, result, "products", func() (int, error) {
		records, err := client.FetchProducts(ctx)
		if err != nil {
			return 0, err
		}
		count, err := o.reconciler.ReconcileProducts(ctx, gatewayConfigID, records)
		result.ProductsSynced += count
		return count, err
	})

	o.runPhase(ctx, result, "derived products", func() (int, error) {
		count, err := o.rebuilder.SeedMissingProducts(ctx, gatewayConfigID)
		result.ProductsSynced += count
		return count, err
	})

	o.runPhase(ctx, result, "plans", func() (int, error) {
		return 0, o.rebuilder.RebuildPlans(ctx, gatewayConfigID)
	})

	o.runPhase(ctx, result, "affiliates", func() (int, error) {
		return 0, o.rebuilder.RebuildAffiliates(ctx, gatewayConfigID)
	})

	o.runPhase(ctx, result, "product stats", func() (int, error) {
		return 0, o.rebuilder.RebuildProductStats(ctx, gatewayConfigID)
	})

	o.finalize(ctx, gateway, run.ID, result)
	return result, nil
}

func (o *Orchestrator) acquire(ctx context.Context, gateway *models.GatewayConfig) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[gateway.ID]; busy {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sync already in progress for this gateway")
	}
	if !gateway.SyncStatus.CanStartSync() {
		if o.now().Sub(gateway.UpdatedAt) < stuckSyncThreshold {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "gateway is already syncing")
		}
		o.logg.Warn(o.logg.WithField(ctx, "stuck_since", gateway.UpdatedAt), "reclaiming gateway stuck in syncing state")
	}
	o.inflight[gateway.ID] = struct{}{}
	return nil
}

func (o *Orchestrator) release(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, id)
}

func (o *Orchestrator) buildClient(gateway *models.GatewayConfig) (GatewayClient, error) {
	credential, err := o.cipher.Decrypt(gateway.EncryptedCredential)
	if err != nil {
		return nil, err
	}
	return o.factory.ClientFor(gateway.GatewayType, credential)
}

// salesWindow derives the incremental fetch range: from the last successful
// sync minus a safety margin, or the full backfill depth on a first run.
func (o *Orchestrator) salesWindow(gateway *models.GatewayConfig, opts SyncOptions, now time.Time) (time.Time, time.Time) {
	if opts.From != nil && opts.To != nil {
		return *opts.From, *opts.To
	}
	from := now.Add(-o.syncCfg.Backfill())
	if gateway.LastSyncAt != nil {
		from = gateway.LastSyncAt.Add(-lastSyncMargin)
	}
	return from, now
}

// fullWindow is the non-incremental range used by abandons, which carry no
// cursor in this design.
func (o *Orchestrator) fullWindow(opts SyncOptions, now time.Time) (time.Time, time.Time) {
	if opts.From != nil && opts.To != nil {
		return *opts.From, *opts.To
	}
	return now.Add(-o.syncCfg.Backfill()), now
}

func (o *Orchestrator) runPhase(ctx context.Context, result *SyncResult, name string, fn func() (int, error)) {
	if _, err := fn(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
		o.logg.Error(o.logg.WithField(ctx, "phase", name), "sync phase failed", err)
	}
}

func (o *Orchestrator) finalize(ctx context.Context, gateway *models.GatewayConfig, runID uuid.UUID, result *SyncResult) {
	finishedAt := o.now().UTC()
	result.FinishedAt = finishedAt
	result.RecordsSynced = result.SalesSynced + result.AbandonsSynced + result.ProductsSynced
	result.Success = len(result.Errors) == 0

	runStatus := enums.SyncRunStatusCompleted
	gatewayStatus := enums.SyncStatusCompleted
	var summary *string
	if !result.Success {
		runStatus = enums.SyncRunStatusError
		gatewayStatus = enums.SyncStatusError
		joined := strings.Join(result.Errors, "; ")
		summary = &joined
	}

	if err := o.gateways.FinalizeRun(ctx, runID, runStatus, result.RecordsSynced, summary, finishedAt); err != nil {
		o.logg.Error(ctx, "finalize sync run", err)
	}
	if err := o.gateways.MarkSynced(ctx, gateway.ID, gatewayStatus, finishedAt); err != nil {
		o.logg.Error(ctx, "persist gateway sync outcome", err)
	}

	o.logg.Info(o.logg.WithFields(ctx, map[string]any{
		"records_synced": result.RecordsSynced,
		"errors":         len(result.Errors),
	}), "gateway sync finished")
}

func (o *Orchestrator) revertStatus(ctx context.Context, id uuid.UUID) {
	if err := o.gateways.UpdateSyncStatus(ctx, id, enums.SyncStatusIdle); err != nil {
		o.logg.Error(ctx, "revert gateway sync status", err)
	}
}
