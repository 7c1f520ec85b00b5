package storage

import (
	"encoding/json"
	"time"

	"github.com/mmm/mint-amazon-tagger/internal/domain/tagger"
)

// RunRecord is one persisted reconciliation run.
type RunRecord struct {
	ID          string    `json:"id"` // UUID
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	DryRun      bool      `json:"dry_run"`
	Success     bool      `json:"success"`

	OrderCount      int `json:"order_count"`
	ItemCount       int `json:"item_count"`
	RefundCount     int `json:"refund_count"`
	UpdateCount     int `json:"update_count"`
	UnmatchedGroups int `json:"unmatched_groups"`
	UnmatchedTxns   int `json:"unmatched_txns"`

	Stats     tagger.Stats `json:"stats"`
	StatsJSON string       `json:"-"` // for DB storage
}

// EncodeStats serializes the stats map for storage.
func (r *RunRecord) EncodeStats() error {
	data, err := json.Marshal(r.Stats)
	if err != nil {
		return err
	}
	r.StatsJSON = string(data)
	return nil
}

// DecodeStats restores the stats map from storage.
func (r *RunRecord) DecodeStats() error {
	if r.StatsJSON == "" {
		r.Stats = tagger.NewStats()
		return nil
	}
	return json.Unmarshal([]byte(r.StatsJSON), &r.Stats)
}

// SkippedTransaction is one user-skipped ledger entry. Transactions on
// this list are never retagged by later runs.
type SkippedTransaction struct {
	TransactionID string    `json:"transaction_id"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AggregateStats summarizes all persisted runs.
type AggregateStats struct {
	TotalRuns    int          `json:"total_runs"`
	DryRunCount  int          `json:"dry_run_count"`
	SuccessCount int          `json:"success_count"`
	TotalUpdates int          `json:"total_updates"`
	Combined     tagger.Stats `json:"combined"`
}
