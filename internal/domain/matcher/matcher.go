// Package matcher binds PurchaseGroups to ledger transactions.
//
// Matching is strict:
//   - Amount must equal the group's target exactly (micro-exact)
//   - Transaction sign must match the group's type (debit vs refund)
//   - Date must be within the tolerance window (default 3 days)
//   - A transaction binds to at most one group
//
// When several candidates survive the amount filter, the unique closest
// date wins; a date tie means equally-valid candidates and the group stays
// unmatched rather than guessing.
package matcher

import (
	"log/slog"
	"time"

	"github.com/mmm/mint-amazon-tagger/internal/domain/grouper"
	"github.com/mmm/mint-amazon-tagger/internal/ledger"
)

// Config holds matcher configuration.
type Config struct {
	DateToleranceDays int // window around the group's ship/refund date
}

// DefaultConfig returns the standard tolerance window.
func DefaultConfig() Config {
	return Config{DateToleranceDays: 3}
}

// Matcher pairs PurchaseGroups with ledger transactions.
type Matcher struct {
	config Config
	logger *slog.Logger
}

// NewMatcher creates a matcher with the given config.
func NewMatcher(config Config, logger *slog.Logger) *Matcher {
	return &Matcher{config: config, logger: logger}
}

// Binding is one bound group/transaction pair.
type Binding struct {
	Group       *grouper.PurchaseGroup
	Transaction *ledger.Transaction
	DateDiff    int // days between transaction date and group date
}

// Result summarizes one matching pass.
type Result struct {
	Bindings          []*Binding
	UnmatchedGroups   []*grouper.PurchaseGroup
	UnmatchedTxnCount int
}

// Match binds each group to at most one transaction. Groups are processed
// in input order; a transaction consumed by one group is unavailable to
// the rest, which is what pairs split-shipment groups with their own
// per-shipment charges.
func (m *Matcher) Match(groups []*grouper.PurchaseGroup, transactions []*ledger.Transaction) *Result {
	result := &Result{}
	used := make(map[string]bool)

	for _, group := range groups {
		if group.Ambiguous {
			m.logger.Debug("Skipping ambiguous split group", "group", group.Key)
			result.UnmatchedGroups = append(result.UnmatchedGroups, group)
			continue
		}
		if !group.IsDebit() && group.Refund.Pending() {
			m.logger.Debug("Skipping pending refund", "order_id", group.OrderID())
			result.UnmatchedGroups = append(result.UnmatchedGroups, group)
			continue
		}

		binding := m.findCandidate(group, transactions, used)
		if binding == nil {
			result.UnmatchedGroups = append(result.UnmatchedGroups, group)
			continue
		}

		used[binding.Transaction.ID] = true
		for _, item := range group.Items {
			item.Matched = true
		}
		result.Bindings = append(result.Bindings, binding)

		m.logger.Debug("Bound group to transaction",
			"group", group.Key,
			"transaction_id", binding.Transaction.ID,
			"amount", group.Target(),
			"date_diff_days", binding.DateDiff)
	}

	for _, t := range transactions {
		if !used[t.ID] {
			result.UnmatchedTxnCount++
		}
	}
	return result
}

// findCandidate returns the unique best candidate for the group, or nil.
func (m *Matcher) findCandidate(
	group *grouper.PurchaseGroup,
	transactions []*ledger.Transaction,
	used map[string]bool,
) *Binding {
	target := group.Target()
	groupDate := group.TransactDate()

	best := -1
	bestDiff := 0
	tied := false
	for i, t := range transactions {
		if used[t.ID] {
			continue
		}
		if t.IsDebit() != group.IsDebit() {
			continue
		}
		if t.EffectiveAmount() != target {
			continue
		}
		diff := daysBetween(t.Date, groupDate)
		if diff > m.config.DateToleranceDays {
			continue
		}
		switch {
		case best == -1 || diff < bestDiff:
			best, bestDiff, tied = i, diff, false
		case diff == bestDiff:
			tied = true
		}
	}

	if best == -1 {
		return nil
	}
	if tied {
		// Equally-valid candidates; binding either would be a guess.
		m.logger.Debug("Multiple equally-valid candidates, leaving unmatched",
			"group", group.Key, "amount", target)
		return nil
	}
	return &Binding{Group: group, Transaction: transactions[best], DateDiff: bestDiff}
}

// daysBetween returns the whole-day distance between two dates.
func daysBetween(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
