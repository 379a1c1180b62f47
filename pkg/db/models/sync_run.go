package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafaelduartes/salescope-backend/pkg/enums"
)

// SyncRun is the append-only audit row for one orchestrator invocation.
// Rows are never mutated after FinishedAt is set.
type SyncRun struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayConfigID uuid.UUID           `gorm:"column:gateway_config_id;type:uuid;not null;index"`
	StartedAt       time.Time           `gorm:"column:started_at;not null"`
	FinishedAt      *time.Time          `gorm:"column:finished_at"`
	Status          enums.SyncRunStatus `gorm:"column:status;not null;default:'running'"`
	RecordsSynced   int                 `gorm:"column:records_synced;not null;default:0"`
	ErrorSummary    *string             `gorm:"column:error_summary"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}
