package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mmm/mint-amazon-tagger/internal/domain/tagger"
)

// Storage provides SQLite database access for run history and the skip
// list. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not exist yet.
func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tagger_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		dry_run BOOLEAN NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL DEFAULT 0,
		order_count INTEGER NOT NULL DEFAULT 0,
		item_count INTEGER NOT NULL DEFAULT 0,
		refund_count INTEGER NOT NULL DEFAULT 0,
		update_count INTEGER NOT NULL DEFAULT 0,
		unmatched_groups INTEGER NOT NULL DEFAULT 0,
		unmatched_txns INTEGER NOT NULL DEFAULT 0,
		stats_json TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS skipped_transactions (
		transaction_id TEXT PRIMARY KEY,
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run and returns its UUID.
func (s *Storage) StartRun(dryRun bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tagger_runs (id, started_at, dry_run) VALUES (?, ?, ?)`,
		id, time.Now(), dryRun,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// CompleteRun records a finished run's counts and stats.
func (s *Storage) CompleteRun(record *RunRecord) error {
	if err := record.EncodeStats(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		UPDATE tagger_runs
		SET completed_at = ?, success = ?, order_count = ?, item_count = ?,
		    refund_count = ?, update_count = ?, unmatched_groups = ?,
		    unmatched_txns = ?, stats_json = ?
		WHERE id = ?`,
		time.Now(), record.Success, record.OrderCount, record.ItemCount,
		record.RefundCount, record.UpdateCount, record.UnmatchedGroups,
		record.UnmatchedTxns, record.StatsJSON, record.ID,
	)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, completed_at, dry_run, success,
		       order_count, item_count, refund_count, update_count,
		       unmatched_groups, unmatched_txns, stats_json
		FROM tagger_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, record)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by UUID.
func (s *Storage) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, completed_at, dry_run, success,
		       order_count, item_count, refund_count, update_count,
		       unmatched_groups, unmatched_txns, stats_json
		FROM tagger_runs WHERE id = ?`, id)
	record, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// scanRun reads one tagger_runs row.
func scanRun(scan func(dest ...any) error) (*RunRecord, error) {
	record := &RunRecord{}
	var completedAt sql.NullTime
	err := scan(
		&record.ID, &record.StartedAt, &completedAt, &record.DryRun,
		&record.Success, &record.OrderCount, &record.ItemCount,
		&record.RefundCount, &record.UpdateCount, &record.UnmatchedGroups,
		&record.UnmatchedTxns, &record.StatsJSON,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time
	}
	if err := record.DecodeStats(); err != nil {
		return nil, err
	}
	return record, nil
}

// GetAggregateStats summarizes all persisted runs.
func (s *Storage) GetAggregateStats() (*AggregateStats, error) {
	runs, err := s.ListRuns(10_000)
	if err != nil {
		return nil, err
	}
	agg := &AggregateStats{Combined: tagger.NewStats()}
	for _, r := range runs {
		agg.TotalRuns++
		if r.DryRun {
			agg.DryRunCount++
		}
		if r.Success {
			agg.SuccessCount++
		}
		agg.TotalUpdates += r.UpdateCount
		agg.Combined.Merge(r.Stats)
	}
	return agg, nil
}

// MarkSkipped adds a transaction to the skip list.
func (s *Storage) MarkSkipped(transactionID, reason string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO skipped_transactions (transaction_id, reason, created_at)
		VALUES (?, ?, ?)`,
		transactionID, reason, time.Now(),
	)
	return err
}

// IsSkipped reports whether a transaction is on the skip list.
func (s *Storage) IsSkipped(transactionID string) bool {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM skipped_transactions WHERE transaction_id = ?`,
		transactionID,
	).Scan(&count)
	return err == nil && count > 0
}

// ListSkipped returns the full skip list.
func (s *Storage) ListSkipped() ([]*SkippedTransaction, error) {
	rows, err := s.db.Query(`
		SELECT transaction_id, reason, created_at
		FROM skipped_transactions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skipped []*SkippedTransaction
	for rows.Next() {
		st := &SkippedTransaction{}
		if err := rows.Scan(&st.TransactionID, &st.Reason, &st.CreatedAt); err != nil {
			return nil, err
		}
		skipped = append(skipped, st)
	}
	return skipped, rows.Err()
}

// Unskip removes a transaction from the skip list.
func (s *Storage) Unskip(transactionID string) error {
	_, err := s.db.Exec(
		`DELETE FROM skipped_transactions WHERE transaction_id = ?`, transactionID)
	return err
}
