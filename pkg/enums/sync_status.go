package enums

// SyncStatus tracks where a gateway configuration sits in its sync state machine.
// Transitions: IDLE -> SYNCING -> {COMPLETED, ERROR}; terminal states return to
// SYNCING on the next run.
type SyncStatus string

const (
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusSyncing   SyncStatus = "syncing"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusError     SyncStatus = "error"
)

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}

// CanStartSync reports whether a new run may begin from this state.
func (s SyncStatus) CanStartSync() bool {
	return s != SyncStatusSyncing
}
