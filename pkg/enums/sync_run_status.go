package enums

// SyncRunStatus is the terminal state recorded on a sync audit row.
type SyncRunStatus string

const (
	SyncRunStatusRunning   SyncRunStatus = "running"
	SyncRunStatusCompleted SyncRunStatus = "completed"
	SyncRunStatusError     SyncRunStatus = "error"
)

// String implements fmt.Stringer.
func (s SyncRunStatus) String() string {
	return string(s)
}
