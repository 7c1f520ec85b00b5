// Package tagging runs the reconciliation pipeline: parsed order history
// records are grouped into charge-sized units, matched against the ledger,
// apportioned per item, and classified into proposed ledger updates. The
// pipeline is single-threaded and synchronous; the only blocking points
// are the report files and the ledger collaborator.
package tagging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mmm/mint-amazon-tagger/internal/domain/apportioner"
	"github.com/mmm/mint-amazon-tagger/internal/domain/grouper"
	"github.com/mmm/mint-amazon-tagger/internal/domain/matcher"
	"github.com/mmm/mint-amazon-tagger/internal/domain/tagger"
	"github.com/mmm/mint-amazon-tagger/internal/ledger"
	"github.com/mmm/mint-amazon-tagger/internal/progress"
	"github.com/mmm/mint-amazon-tagger/internal/records"
	"github.com/mmm/mint-amazon-tagger/internal/reports"
)

// ErrNoInput indicates a required report was missing or empty. The run
// aborts before any matching occurs.
var ErrNoInput = errors.New("tagging: required report data missing or empty")

// CreateUpdates executes one full reconciliation run and returns the
// proposed ledger updates plus run statistics. Nothing is written to the
// ledger; ApplyUpdates commits separately.
func CreateUpdates(ctx context.Context, opts Options, deps Deps) (*RunResult, error) {
	deps = withDefaults(deps)
	result := &RunResult{Stats: tagger.NewStats()}

	items, orders, refunds, err := loadReports(opts, deps)
	if err != nil {
		if errors.Is(err, ErrNoInput) {
			deps.OnCritical(err.Error())
			return result, err
		}
		deps.OnCritical(fmt.Sprintf("parsing order history reports: %v", err))
		return result, err
	}
	result.Items, result.Orders, result.Refunds = items, orders, refunds

	deps.Logger.Debug("Parsed order history reports",
		"orders", len(orders), "items", len(items), "refunds", len(refunds))

	groups := grouper.Group(orders, items, refunds, deps.Logger)

	transactions, err := fetchTransactions(ctx, opts, deps, orders, refunds)
	if err != nil {
		return result, fmt.Errorf("fetching ledger transactions: %w", err)
	}
	deps.Logger.Debug("Fetched ledger transactions", "count", len(transactions))

	m := matcher.NewMatcher(matcher.Config{DateToleranceDays: opts.DateToleranceDays}, deps.Logger)
	matchResult := m.Match(groups, transactions)
	records.RecomputeItemsMatched(orders, items)

	result.UnmatchedGroups = matchResult.UnmatchedGroups
	result.UnmatchedTxnCount = matchResult.UnmatchedTxnCount

	tg := tagger.NewTagger(tagger.Config{
		Itemize:           opts.Itemize,
		Retag:             opts.Retag,
		DescriptionPrefix: "Amazon.com: ",
		RefundPrefix:      "Amazon.com refund: ",
	})

	p := deps.Counter("Tagging transactions")
	defer p.Finish()

	for _, binding := range matchResult.Bindings {
		app, err := apportioner.Apportion(binding.Group, binding.Transaction.EffectiveAmount())
		if err != nil {
			// Degenerate weights; skip this group, keep the run going.
			deps.Logger.Warn("Skipping group with degenerate apportionment",
				"group", binding.Group.Key, "error", err)
			continue
		}

		replacement := tg.BuildProposal(app, binding.Transaction)
		outcome := tg.Classify(binding.Transaction, replacement, app.MiscCharge, deps.Skipped)
		result.Stats.Add(outcome)
		result.Updates = append(result.Updates, &Update{
			Group:       binding.Group,
			Original:    binding.Transaction,
			Replacement: replacement,
			Outcome:     outcome,
		})
		p.Advance(1)
	}

	result.Success = true
	return result, nil
}

// ApplyUpdates commits the writable updates through the ledger service.
// Failures are per-entry: a failed write is recorded and the batch
// continues.
func ApplyUpdates(ctx context.Context, result *RunResult, deps Deps) []UpdateStatus {
	deps = withDefaults(deps)

	var writable []*Update
	for _, u := range result.Updates {
		if u.NeedsWrite() {
			writable = append(writable, u)
		}
	}

	p := deps.Determinate("Updating ledger", len(writable))
	defer p.Finish()

	statuses := make([]UpdateStatus, 0, len(writable))
	for _, u := range writable {
		err := deps.Ledger.UpdateTransaction(ctx, u.Original, u.Replacement)
		if err != nil {
			deps.Logger.Error("Ledger update failed",
				"transaction_id", u.Original.ID, "error", err)
		}
		statuses = append(statuses, UpdateStatus{Update: u, Err: err})
		p.Advance(1)
	}
	return statuses
}

// loadReports opens and parses the three report files. Items and Orders
// are required and must be non-empty; Refunds is optional.
func loadReports(opts Options, deps Deps) ([]*records.Item, []*records.Order, []*records.Refund, error) {
	if opts.ItemsPath == "" || opts.OrdersPath == "" {
		return nil, nil, nil, fmt.Errorf("%w: Items and Orders report paths are required", ErrNoInput)
	}

	ordersFile, err := os.Open(opts.OrdersPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	defer ordersFile.Close()
	orders, err := reports.ParseOrders(ordersFile, deps.Determinate)
	if err != nil {
		return nil, nil, nil, err
	}

	itemsFile, err := os.Open(opts.ItemsPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	defer itemsFile.Close()
	items, err := reports.ParseItems(itemsFile, deps.Determinate)
	if err != nil {
		return nil, nil, nil, err
	}

	var refunds []*records.Refund
	if opts.RefundsPath != "" {
		refundsFile, err := os.Open(opts.RefundsPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %v", ErrNoInput, err)
		}
		defer refundsFile.Close()
		refunds, err = reports.ParseRefunds(refundsFile, deps.Determinate)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if len(orders) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: the Orders report contains no data (report used: %s)", ErrNoInput, opts.OrdersPath)
	}
	if len(items) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: the Items report contains no data (report used: %s)", ErrNoInput, opts.ItemsPath)
	}
	return items, orders, refunds, nil
}

// fetchTransactions pulls the ledger window covering every order and
// refund date, padded by the matching tolerance.
func fetchTransactions(ctx context.Context, opts Options, deps Deps, orders []*records.Order, refunds []*records.Refund) ([]*ledger.Transaction, error) {
	first, last, _ := records.DateRange(orders)
	for _, o := range orders {
		if !o.ShipDate.IsZero() && o.ShipDate.After(last) {
			last = o.ShipDate
		}
	}
	for _, r := range refunds {
		if r.Pending() {
			continue
		}
		if r.RefundDate.After(last) {
			last = r.RefundDate
		}
		if r.RefundDate.Before(first) {
			first = r.RefundDate
		}
	}

	pad := time.Duration(opts.DateToleranceDays) * 24 * time.Hour
	window := ledger.DateRange{Start: first.Add(-pad), End: last.Add(pad)}

	p := deps.Indeterminate("Fetching ledger transactions")
	defer p.Finish()
	return deps.Ledger.GetTransactions(ctx, window)
}

// withDefaults fills in no-op collaborators for any left unset.
func withDefaults(deps Deps) Deps {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.OnCritical == nil {
		deps.OnCritical = func(string) {}
	}
	if deps.Indeterminate == nil {
		deps.Indeterminate = progress.NoIndeterminate
	}
	if deps.Determinate == nil {
		deps.Determinate = progress.NoDeterminate
	}
	if deps.Counter == nil {
		deps.Counter = progress.NoCounter
	}
	return deps
}
