package gateways

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
)

func setupGatewaysTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique in-memory name per test so pooled connections share one database
	// without leaking rows across tests.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	gatewayConfigs := `
CREATE TABLE IF NOT EXISTS gateway_configs (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  gateway_type TEXT NOT NULL,
  encrypted_credential TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_sync_at DATETIME,
  sync_status TEXT NOT NULL DEFAULT 'idle',
  created_at DATETIME,
  updated_at DATETIME
);`
	syncRuns := `
CREATE TABLE IF NOT EXISTS sync_runs (
  id TEXT PRIMARY KEY,
  gateway_config_id TEXT NOT NULL,
  started_at DATETIME NOT NULL,
  finished_at DATETIME,
  status TEXT NOT NULL DEFAULT 'running',
  records_synced INTEGER NOT NULL DEFAULT 0,
  error_summary TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(gatewayConfigs).Error)
	require.NoError(t, db.Exec(syncRuns).Error)

	return db
}

func seedGatewayConfig(t *testing.T, db *gorm.DB, active bool, lastSync *time.Time) *models.GatewayConfig {
	t.Helper()
	config := &models.GatewayConfig{
		ID:                  uuid.New(),
		UserID:              uuid.New(),
		GatewayType:         enums.GatewayTypeVentra,
		EncryptedCredential: "sealed",
		IsActive:            active,
		LastSyncAt:          lastSync,
		SyncStatus:          enums.SyncStatusIdle,
	}
	require.NoError(t, db.Create(config).Error)
	return config
}

func TestListActiveReturnsStalestFirst(t *testing.T) {
	db := setupGatewaysTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recent := time.Now().Add(-time.Hour)
	stale := time.Now().Add(-48 * time.Hour)
	fresh := seedGatewayConfig(t, db, true, &recent)
	starved := seedGatewayConfig(t, db, true, &stale)
	never := seedGatewayConfig(t, db, true, nil)
	seedGatewayConfig(t, db, false, nil)

	configs, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 3)
	assert.Equal(t, never.ID, configs[0].ID)
	assert.Equal(t, starved.ID, configs[1].ID)
	assert.Equal(t, fresh.ID, configs[2].ID)
}

func TestFindByIDMissingReturnsNotFound(t *testing.T) {
	db := setupGatewaysTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSyncStatusTransitions(t *testing.T) {
	db := setupGatewaysTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	config := seedGatewayConfig(t, db, true, nil)

	require.NoError(t, repo.UpdateSyncStatus(ctx, config.ID, enums.SyncStatusSyncing))
	reloaded, err := repo.FindByID(ctx, config.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SyncStatusSyncing, reloaded.SyncStatus)

	finishedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkSynced(ctx, config.ID, enums.SyncStatusCompleted, finishedAt))
	reloaded, err = repo.FindByID(ctx, config.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SyncStatusCompleted, reloaded.SyncStatus)
	require.NotNil(t, reloaded.LastSyncAt)
	assert.WithinDuration(t, finishedAt, *reloaded.LastSyncAt, time.Second)
}

func TestRunLifecycle(t *testing.T) {
	db := setupGatewaysTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	config := seedGatewayConfig(t, db, true, nil)

	run, err := repo.CreateRun(ctx, config.ID, time.Now().UTC())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, enums.SyncRunStatusRunning, run.Status)

	summary := "abandons: gateway rate limit exceeded"
	require.NoError(t, repo.FinalizeRun(ctx, run.ID, enums.SyncRunStatusError, 140, &summary, time.Now().UTC()))

	runs, err := repo.ListRuns(ctx, config.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, enums.SyncRunStatusError, runs[0].Status)
	assert.Equal(t, 140, runs[0].RecordsSynced)
	require.NotNil(t, runs[0].ErrorSummary)
	assert.Equal(t, summary, *runs[0].ErrorSummary)
	require.NotNil(t, runs[0].FinishedAt)
}

func TestListRunsHonorsLimitAndOrder(t *testing.T) {
	db := setupGatewaysTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	config := seedGatewayConfig(t, db, true, nil)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := repo.CreateRun(ctx, config.ID, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	runs, err := repo.ListRuns(ctx, config.ID, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.True(t, runs[1].StartedAt.After(runs[2].StartedAt))
}
