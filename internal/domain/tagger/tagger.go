// Package tagger builds the proposed replacement entries for each bound
// ledger transaction and classifies what, if anything, needs to change:
// already up to date, new tag, retag, or left untouched. Every bound
// transaction increments exactly one stats counter.
package tagger

import (
	"fmt"
	"strings"

	"github.com/mmm/mint-amazon-tagger/internal/domain/apportioner"
	"github.com/mmm/mint-amazon-tagger/internal/ledger"
)

// Config controls proposal construction and retag policy.
type Config struct {
	// Itemize emits one child transaction per item instead of a single
	// aggregated entry.
	Itemize bool

	// Retag allows replacing entries this tool tagged on a previous run.
	// When false, changed entries are counted no_retag and left alone.
	Retag bool

	// DescriptionPrefix marks entries written by this tool, e.g.
	// "Amazon.com: ". RefundPrefix marks refund credits.
	DescriptionPrefix string
	RefundPrefix      string
}

// DefaultConfig returns the standard tagging policy.
func DefaultConfig() Config {
	return Config{
		Itemize:           true,
		Retag:             true,
		DescriptionPrefix: "Amazon.com: ",
		RefundPrefix:      "Amazon.com refund: ",
	}
}

// Tagger constructs proposals and classifies outcomes.
type Tagger struct {
	config Config
}

// NewTagger creates a tagger with the given config.
func NewTagger(config Config) *Tagger {
	return &Tagger{config: config}
}

// maxTitleLen bounds each item title in descriptions; the full titles on
// Amazon reports routinely run hundreds of characters.
const maxTitleLen = 64

// BuildProposal constructs the replacement entry (itemized children or a
// single aggregate) for one apportioned, bound transaction.
func (t *Tagger) BuildProposal(app *apportioner.Apportionment, txn *ledger.Transaction) *ledger.Transaction {
	replacement := txn.Clone()
	replacement.Children = nil

	group := app.Group
	if !group.IsDebit() {
		replacement.Description = t.config.RefundPrefix + truncateTitle(group.Refund.Title)
		replacement.Category = RefundCategory
		return replacement
	}

	if app.MiscCharge {
		replacement.Description = t.config.DescriptionPrefix + "Misc Charge (Gift wrap or other)"
		replacement.Category = MiscCategory
		return replacement
	}

	titles := make([]string, len(app.Shares))
	for i, share := range app.Shares {
		titles[i] = share.Item.Title
	}

	if t.config.Itemize {
		replacement.Description = t.config.DescriptionPrefix + summarizeTitles(titles)
		replacement.Category = DefaultCategory
		for _, share := range app.Shares {
			replacement.Children = append(replacement.Children, &ledger.Transaction{
				ID:          txn.ID + ":" + fmt.Sprint(len(replacement.Children)+1),
				Date:        txn.Date,
				Amount:      share.Total,
				Description: t.config.DescriptionPrefix + truncateTitle(share.Item.Title),
				Category:    MapCategory(share.Item.Category),
			})
		}
		return replacement
	}

	replacement.Description = t.config.DescriptionPrefix + summarizeTitles(titles)
	replacement.Category = t.aggregateCategory(app)
	return replacement
}

// aggregateCategory picks the single mapped category when every item in
// the group agrees, else the default.
func (t *Tagger) aggregateCategory(app *apportioner.Apportionment) string {
	category := ""
	for _, share := range app.Shares {
		c := MapCategory(share.Item.Category)
		if category == "" {
			category = c
		} else if category != c {
			return DefaultCategory
		}
	}
	if category == "" {
		return DefaultCategory
	}
	return category
}

// SkipChecker reports whether a previous run recorded the transaction as
// user-skipped. The skip list lives outside the engine (local storage).
type SkipChecker func(transactionID string) bool

// Classify decides the outcome for one proposal. Priority order: already
// up to date, personal category, user skipped, retag/adjust, new tag,
// no retag. Misc-only proposals applied for the first time count as
// misc_charge instead of new_tag.
func (t *Tagger) Classify(existing, replacement *ledger.Transaction, misc bool, skipped SkipChecker) Outcome {
	if transactionsEqual(existing, replacement) {
		return AlreadyUpToDate
	}

	tagged := t.toolTagged(existing)

	if tagged && !IsManagedCategory(existing.Category) {
		return PersonalCategory
	}
	if skipped != nil && skipped(existing.ID) {
		return UserSkippedRetag
	}

	if !tagged {
		if misc {
			return MiscCharge
		}
		return NewTag
	}

	if !t.config.Retag {
		return NoRetag
	}
	if sameShapeDifferentAmounts(existing, replacement) {
		return AdjustItemizedTax
	}
	return Retag
}

// toolTagged reports whether this tool wrote the existing entry on a
// previous run, detected by the description prefix on the parent or any
// child.
func (t *Tagger) toolTagged(txn *ledger.Transaction) bool {
	if strings.HasPrefix(txn.Description, t.config.DescriptionPrefix) ||
		strings.HasPrefix(txn.Description, t.config.RefundPrefix) {
		return true
	}
	for _, c := range txn.Children {
		if strings.HasPrefix(c.Description, t.config.DescriptionPrefix) {
			return true
		}
	}
	return false
}

// transactionsEqual compares description, category, amount, and the full
// child split.
func transactionsEqual(a, b *ledger.Transaction) bool {
	if a.Description != b.Description || a.Category != b.Category || a.Amount != b.Amount {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		ca, cb := a.Children[i], b.Children[i]
		if ca.Description != cb.Description || ca.Category != cb.Category || ca.Amount != cb.Amount {
			return false
		}
	}
	return true
}

// sameShapeDifferentAmounts reports whether the entries agree on
// descriptions and categories and differ only in the numeric split, which
// happens when upstream report data corrects apportioned tax or shipping.
func sameShapeDifferentAmounts(a, b *ledger.Transaction) bool {
	if a.Description != b.Description || a.Category != b.Category {
		return false
	}
	if len(a.Children) != len(b.Children) || len(a.Children) == 0 {
		return false
	}
	for i := range a.Children {
		ca, cb := a.Children[i], b.Children[i]
		if ca.Description != cb.Description || ca.Category != cb.Category {
			return false
		}
	}
	return true
}

// truncateTitle clamps one item title for use in a description.
func truncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) <= maxTitleLen {
		return title
	}
	return title[:maxTitleLen-3] + "..."
}

// summarizeTitles joins item titles into a single human-readable
// description, clamping each title and the overall length.
func summarizeTitles(titles []string) string {
	parts := make([]string, len(titles))
	for i, title := range titles {
		parts[i] = truncateTitle(title)
	}
	joined := strings.Join(parts, "; ")
	const maxLen = 160
	if len(joined) > maxLen {
		joined = joined[:maxLen-3] + "..."
	}
	return joined
}
