package gateways

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
)

// Repository handles gateway-config and sync-run persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to gateway operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a gateway config by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GatewayConfig, error) {
	var config models.GatewayConfig
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// ListActive returns every gateway config eligible for scheduled syncing,
// oldest first so starved configs catch up before fresh ones.
func (r *Repository) ListActive(ctx context.Context) ([]models.GatewayConfig, error) {
	var configs []models.GatewayConfig
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("last_sync_at ASC NULLS FIRST").
		Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// UpdateSyncStatus moves a gateway config to the given lifecycle status.
func (r *Repository) UpdateSyncStatus(ctx context.Context, id uuid.UUID, status enums.SyncStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.GatewayConfig{}).
		Where("id = ?", id).
		Update("sync_status", status).Error
}

// MarkSynced records a finished run's terminal status and completion time.
func (r *Repository) MarkSynced(ctx context.Context, id uuid.UUID, status enums.SyncStatus, syncedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.GatewayConfig{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status":  status,
			"last_sync_at": syncedAt,
		}).Error
}

// CreateRun opens a sync-run audit row in the running state.
func (r *Repository) CreateRun(ctx context.Context, gatewayConfigID uuid.UUID, startedAt time.Time) (*models.SyncRun, error) {
	run := &models.SyncRun{
		ID:              uuid.New(),
		GatewayConfigID: gatewayConfigID,
		StartedAt:       startedAt,
		Status:          enums.SyncRunStatusRunning,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// FinalizeRun closes a sync-run audit row with its outcome.
func (r *Repository) FinalizeRun(ctx context.Context, runID uuid.UUID, status enums.SyncRunStatus, recordsSynced int, errorSummary *string, finishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncRun{}).
		Where("id = ?", runID).
		Updates(map[string]any{
			"status":         status,
			"records_synced": recordsSynced,
			"error_summary":  errorSummary,
			"finished_at":    finishedAt,
		}).Error
}

// ListRuns returns the most recent sync runs for a gateway config.
func (r *Repository) ListRuns(ctx context.Context, gatewayConfigID uuid.UUID, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.SyncRun
	if err := r.db.WithContext(ctx).
		Where("gateway_config_id = ?", gatewayConfigID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
