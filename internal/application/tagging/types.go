package tagging

import (
	"log/slog"

	"github.com/mmm/mint-amazon-tagger/internal/domain/grouper"
	"github.com/mmm/mint-amazon-tagger/internal/domain/matcher"
	"github.com/mmm/mint-amazon-tagger/internal/domain/tagger"
	"github.com/mmm/mint-amazon-tagger/internal/ledger"
	"github.com/mmm/mint-amazon-tagger/internal/progress"
	"github.com/mmm/mint-amazon-tagger/internal/records"
)

// Options holds one run's configuration.
type Options struct {
	// Report file paths. Items and Orders are required; Refunds is
	// optional.
	ItemsPath   string
	OrdersPath  string
	RefundsPath string

	// Itemize emits one child entry per item; otherwise one aggregated
	// entry per charge.
	Itemize bool

	// Retag allows replacing entries tagged by a previous run.
	Retag bool

	// DateToleranceDays is the matching window around ship/refund dates.
	DateToleranceDays int

	// DryRun skips the ledger commit.
	DryRun bool
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions() Options {
	return Options{
		Itemize:           true,
		Retag:             true,
		DateToleranceDays: matcher.DefaultConfig().DateToleranceDays,
		DryRun:            true,
	}
}

// Deps are the external collaborators one run depends on. Only Ledger and
// Logger are required; everything else defaults to a no-op.
type Deps struct {
	Ledger ledger.Service
	Logger *slog.Logger

	// Skipped reports whether a previous run recorded the transaction as
	// user-skipped.
	Skipped tagger.SkipChecker

	// OnCritical is invoked with a message when required input is missing
	// or unreadable; the run aborts immediately afterward.
	OnCritical func(msg string)

	Indeterminate progress.IndeterminateFactory
	Determinate   progress.DeterminateFactory
	Counter       progress.CounterFactory
}

// Update pairs one bound transaction with its proposed replacement and
// classification.
type Update struct {
	Group       *grouper.PurchaseGroup
	Original    *ledger.Transaction
	Replacement *ledger.Transaction
	Outcome     tagger.Outcome
}

// NeedsWrite reports whether this update results in a ledger write.
func (u *Update) NeedsWrite() bool {
	switch u.Outcome {
	case tagger.NewTag, tagger.Retag, tagger.AdjustItemizedTax, tagger.MiscCharge:
		return true
	}
	return false
}

// RunResult is the outcome of one engine run. Stats is a value built up
// across the pipeline stages; nothing about a run survives outside this
// struct.
type RunResult struct {
	Success bool

	Items   []*records.Item
	Orders  []*records.Order
	Refunds []*records.Refund

	Updates           []*Update
	UnmatchedGroups   []*grouper.PurchaseGroup
	UnmatchedTxnCount int

	Stats tagger.Stats
}

// UpdateStatus is the per-entry outcome of a commit. A failed entry does
// not abort the rest of the batch.
type UpdateStatus struct {
	Update *Update
	Err    error
}
