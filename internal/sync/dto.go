package sync

import (
	"time"

	"github.com/google/uuid"
)

// SyncOptions narrows an on-demand run to an explicit date range. Both bounds
// must be set together; when absent the orchestrator derives the range from
// the gateway's last successful sync.
type SyncOptions struct {
	From *time.Time
	To   *time.Time
}

// SyncResult is the synchronous outcome of one orchestrator run. Success is
// true only when every phase completed; Errors carries one entry per failed
// phase so callers can see partial progress.
type SyncResult struct {
	GatewayConfigID uuid.UUID `json:"gateway_config_id"`
	SyncRunID       uuid.UUID `json:"sync_run_id"`
	Success         bool      `json:"success"`
	SalesSynced     int       `json:"sales_synced"`
	AbandonsSynced  int       `json:"abandons_synced"`
	ProductsSynced  int       `json:"products_synced"`
	RecordsSynced   int       `json:"records_synced"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Errors          []string  `json:"errors"`
}
