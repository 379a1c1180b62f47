package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelduartes/salescope-backend/internal/sync"
	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/metrics"
)

type fakeLister struct {
	configs []models.GatewayConfig
	err     error
}

func (f *fakeLister) ListActive(context.Context) ([]models.GatewayConfig, error) {
	return f.configs, f.err
}

type fakeSyncer struct {
	synced  []uuid.UUID
	failOn  map[uuid.UUID]error
	results map[uuid.UUID]*sync.SyncResult
}

func (f *fakeSyncer) SyncGateway(_ context.Context, id uuid.UUID, _ sync.SyncOptions) (*sync.SyncResult, error) {
	f.synced = append(f.synced, id)
	if err, ok := f.failOn[id]; ok {
		return nil, err
	}
	if result, ok := f.results[id]; ok {
		return result, nil
	}
	now := time.Now()
	return &sync.SyncResult{GatewayConfigID: id, Success: true, StartedAt: now, FinishedAt: now}, nil
}

func activeConfig() models.GatewayConfig {
	return models.GatewayConfig{ID: uuid.New(), GatewayType: enums.GatewayTypeVentra, IsActive: true}
}

func newSyncJob(t *testing.T, lister *fakeLister, syncer *fakeSyncer) *GatewaySyncJob {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job, err := NewGatewaySyncJob(lister, syncer, metrics.NewSyncMetrics(nil), logg)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	return job
}

func TestGatewaySyncJobSyncsEveryActiveGateway(t *testing.T) {
	first := activeConfig()
	second := activeConfig()
	lister := &fakeLister{configs: []models.GatewayConfig{first, second}}
	syncer := &fakeSyncer{}

	job := newSyncJob(t, lister, syncer)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(syncer.synced) != 2 {
		t.Fatalf("expected 2 gateways synced, got %d", len(syncer.synced))
	}
	if syncer.synced[0] != first.ID || syncer.synced[1] != second.ID {
		t.Fatalf("gateways synced out of order: %v", syncer.synced)
	}
}

func TestGatewaySyncJobIsolatesGatewayFailures(t *testing.T) {
	broken := activeConfig()
	healthy := activeConfig()
	lister := &fakeLister{configs: []models.GatewayConfig{broken, healthy}}
	syncer := &fakeSyncer{failOn: map[uuid.UUID]error{broken.ID: errors.New("gateway config is disabled")}}

	job := newSyncJob(t, lister, syncer)
	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error for the broken gateway")
	}

	if len(syncer.synced) != 2 {
		t.Fatalf("the healthy gateway must still sync; synced %d", len(syncer.synced))
	}
}

func TestGatewaySyncJobSurfacesListingFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	job := newSyncJob(t, lister, &fakeSyncer{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when active gateways cannot be listed")
	}
}

func TestGatewaySyncJobNoActiveGatewaysIsANoOp(t *testing.T) {
	job := newSyncJob(t, &fakeLister{}, &fakeSyncer{})
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}
