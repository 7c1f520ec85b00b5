// Package ledger defines the financial-account ledger boundary: the
// transaction model the engine reconciles against and the blocking read and
// write interface a ledger backend must satisfy.
package ledger

import (
	"context"
	"time"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
)

// Transaction is one ledger entry. Amount is signed: positive for a
// purchase charge (debit), negative for a refund credit. Children, when
// present, are an existing itemized split of the same charge.
type Transaction struct {
	ID          string            `json:"id"`
	Date        time.Time         `json:"date"`
	Amount      currency.MicroUSD `json:"amount"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Note        string            `json:"note,omitempty"`
	Children    []*Transaction    `json:"children,omitempty"`
}

// IsDebit reports whether this transaction is a purchase charge. Itemized
// entries carry their amount in the children, so the effective amount
// decides.
func (t *Transaction) IsDebit() bool {
	return t.EffectiveAmount() > 0
}

// EffectiveAmount is the amount the matcher compares against: the parent
// total, or the sum of children when the charge is already itemized.
func (t *Transaction) EffectiveAmount() currency.MicroUSD {
	if len(t.Children) == 0 {
		return t.Amount
	}
	var sum currency.MicroUSD
	for _, c := range t.Children {
		sum += c.Amount
	}
	return sum
}

// Clone returns a deep copy, children included.
func (t *Transaction) Clone() *Transaction {
	dup := *t
	if len(t.Children) > 0 {
		dup.Children = make([]*Transaction, len(t.Children))
		for i, c := range t.Children {
			dup.Children[i] = c.Clone()
		}
	}
	return &dup
}

// DateRange bounds a transaction query, inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Service is the remote ledger collaborator. Both calls block; the engine
// invokes them only at pipeline boundaries.
type Service interface {
	// GetTransactions returns ledger entries within the date range.
	GetTransactions(ctx context.Context, r DateRange) ([]*Transaction, error)

	// UpdateTransaction replaces old with new. Implementations report
	// failure per call; the engine continues the batch on error.
	UpdateTransaction(ctx context.Context, old, new *Transaction) error
}
