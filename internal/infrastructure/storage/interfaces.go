package storage

// Repository defines the complete storage interface. It allows swapping
// implementations and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	SkipRepository
	Close() error
}

// RunRepository persists reconciliation run history.
type RunRepository interface {
	// StartRun records the start of a run and returns its UUID.
	StartRun(dryRun bool) (string, error)

	// CompleteRun records a finished run's counts and stats.
	CompleteRun(record *RunRecord) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*RunRecord, error)

	// GetRun retrieves a run by UUID.
	GetRun(id string) (*RunRecord, error)

	// GetAggregateStats summarizes all persisted runs.
	GetAggregateStats() (*AggregateStats, error)
}

// SkipRepository persists the user-skipped transaction list that feeds the
// user_skipped_retag classification.
type SkipRepository interface {
	// MarkSkipped adds a transaction to the skip list.
	MarkSkipped(transactionID, reason string) error

	// IsSkipped reports whether a transaction is on the skip list.
	IsSkipped(transactionID string) bool

	// ListSkipped returns the full skip list.
	ListSkipped() ([]*SkippedTransaction, error)

	// Unskip removes a transaction from the skip list.
	Unskip(transactionID string) error
}
