package tagger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
	"github.com/mmm/mint-amazon-tagger/internal/domain/apportioner"
	"github.com/mmm/mint-amazon-tagger/internal/domain/grouper"
	"github.com/mmm/mint-amazon-tagger/internal/ledger"
	"github.com/mmm/mint-amazon-tagger/internal/records"
)

func testApportionment(t *testing.T) *apportioner.Apportionment {
	t.Helper()
	group := &grouper.PurchaseGroup{
		Key: "A",
		Order: &records.Order{
			OrderID:  "A",
			Subtotal: 46_000_000,
			Tax:      4_000_000,
			Total:    50_000_000,
		},
		Items: []*records.Item{
			{Title: "Widget A", Category: "Toy", Subtotal: 20_000_000},
			{Title: "Widget B", Category: "CE", Subtotal: 26_000_000},
		},
	}
	app, err := apportioner.Apportion(group, 50_000_000)
	require.NoError(t, err)
	return app
}

func bankTxn() *ledger.Transaction {
	return &ledger.Transaction{
		ID:          "t1",
		Date:        time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		Amount:      50_000_000,
		Description: "AMZN Mktp US*123",
		Category:    "Shopping",
	}
}

func TestBuildProposal_Itemized(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)

	replacement := tg.BuildProposal(app, bankTxn())

	assert.True(t, strings.HasPrefix(replacement.Description, "Amazon.com: "))
	require.Len(t, replacement.Children, 2)

	first := replacement.Children[0]
	assert.Equal(t, "t1:1", first.ID)
	assert.Equal(t, "Amazon.com: Widget A", first.Description)
	assert.Equal(t, "Toys", first.Category)
	assert.Equal(t, currency.MicroUSD(21_740_000), first.Amount)

	second := replacement.Children[1]
	assert.Equal(t, "Electronics & Software", second.Category)
	assert.Equal(t, currency.MicroUSD(28_260_000), second.Amount)

	// Children sum to the original charge.
	assert.Equal(t, currency.MicroUSD(50_000_000), first.Amount+second.Amount)
}

func TestBuildProposal_Aggregate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Itemize = false
	tg := NewTagger(cfg)
	app := testApportionment(t)

	replacement := tg.BuildProposal(app, bankTxn())

	assert.Empty(t, replacement.Children)
	// Items map to different categories, so the aggregate falls back.
	assert.Equal(t, DefaultCategory, replacement.Category)
	assert.Contains(t, replacement.Description, "Widget A")
	assert.Contains(t, replacement.Description, "Widget B")
}

func TestBuildProposal_AggregateSingleCategory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Itemize = false
	tg := NewTagger(cfg)

	group := &grouper.PurchaseGroup{
		Key:   "A",
		Order: &records.Order{OrderID: "A", Subtotal: 10_000_000, Total: 10_000_000},
		Items: []*records.Item{
			{Title: "Book One", Category: "Book", Subtotal: 4_000_000},
			{Title: "Book Two", Category: "Abis Book", Subtotal: 6_000_000},
		},
	}
	app, err := apportioner.Apportion(group, 10_000_000)
	require.NoError(t, err)

	replacement := tg.BuildProposal(app, bankTxn())
	assert.Equal(t, "Books", replacement.Category)
}

func TestBuildProposal_Refund(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	group := &grouper.PurchaseGroup{
		Key:    "A-refund",
		Refund: &records.Refund{OrderID: "A", Title: "Widget A", Amount: 14_000_000, Tax: 1_000_000},
	}
	app, err := apportioner.Apportion(group, -15_000_000)
	require.NoError(t, err)

	credit := &ledger.Transaction{ID: "t2", Amount: -15_000_000, Description: "AMZN Refund"}
	replacement := tg.BuildProposal(app, credit)

	assert.Equal(t, "Amazon.com refund: Widget A", replacement.Description)
	assert.Equal(t, RefundCategory, replacement.Category)
	assert.Empty(t, replacement.Children)
}

func TestBuildProposal_MiscCharge(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	group := &grouper.PurchaseGroup{
		Key:   "A",
		Order: &records.Order{OrderID: "A", Total: 25_000_000},
	}
	app, err := apportioner.Apportion(group, 25_000_000)
	require.NoError(t, err)

	replacement := tg.BuildProposal(app, bankTxn())

	assert.Equal(t, "Amazon.com: Misc Charge (Gift wrap or other)", replacement.Description)
	assert.Equal(t, MiscCategory, replacement.Category)
}

func TestBuildProposal_TruncatesLongTitles(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	group := &grouper.PurchaseGroup{
		Key:   "A",
		Order: &records.Order{OrderID: "A", Subtotal: 10_000_000, Total: 10_000_000},
		Items: []*records.Item{
			{Title: strings.Repeat("Very Long Product Name ", 20), Category: "Toy", Subtotal: 10_000_000},
		},
	}
	app, err := apportioner.Apportion(group, 10_000_000)
	require.NoError(t, err)

	replacement := tg.BuildProposal(app, bankTxn())

	require.Len(t, replacement.Children, 1)
	child := replacement.Children[0]
	assert.LessOrEqual(t, len(child.Description), len("Amazon.com: ")+maxTitleLen)
	assert.True(t, strings.HasSuffix(child.Description, "..."))
}

func TestClassify_NewTag(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)
	existing := bankTxn()
	replacement := tg.BuildProposal(app, existing)

	outcome := tg.Classify(existing, replacement, false, nil)
	assert.Equal(t, NewTag, outcome)
}

func TestClassify_AlreadyUpToDate(t *testing.T) {
	// Running the pipeline twice over an unchanged ledger must be a no-op
	// the second time.
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)
	replacement := tg.BuildProposal(app, bankTxn())

	again := tg.BuildProposal(app, replacement)
	outcome := tg.Classify(replacement, again, false, nil)
	assert.Equal(t, AlreadyUpToDate, outcome)
}

func TestClassify_PersonalCategoryNeverOverwritten(t *testing.T) {
	// The user recategorized a previously tagged entry; it is left alone
	// even though the proposal differs.
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)

	existing := bankTxn()
	existing.Description = "Amazon.com: Widget A; Widget B"
	existing.Category = "Reimbursable - Work"

	replacement := tg.BuildProposal(app, existing)
	outcome := tg.Classify(existing, replacement, false, nil)
	assert.Equal(t, PersonalCategory, outcome)
}

func TestClassify_FreshTransactionWithOddCategoryIsNewTag(t *testing.T) {
	// An arbitrary bank category on an untagged transaction does not count
	// as a user recategorization.
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)

	existing := bankTxn()
	existing.Category = "Uncategorized"

	replacement := tg.BuildProposal(app, existing)
	outcome := tg.Classify(existing, replacement, false, nil)
	assert.Equal(t, NewTag, outcome)
}

func TestClassify_UserSkipped(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)
	existing := bankTxn()
	replacement := tg.BuildProposal(app, existing)

	skipped := func(id string) bool { return id == "t1" }
	outcome := tg.Classify(existing, replacement, false, skipped)
	assert.Equal(t, UserSkippedRetag, outcome)
}

func TestClassify_NoRetag(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retag = false
	tg := NewTagger(cfg)
	app := testApportionment(t)

	// Previously tagged with different content.
	existing := bankTxn()
	existing.Description = "Amazon.com: Old Widget"
	existing.Category = DefaultCategory

	replacement := tg.BuildProposal(app, existing)
	outcome := tg.Classify(existing, replacement, false, nil)
	assert.Equal(t, NoRetag, outcome)
}

func TestClassify_AdjustItemizedTax(t *testing.T) {
	// Same items and categories, amounts shifted (corrected tax split):
	// counted as a tax adjustment, not a full retag.
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)

	replacement := tg.BuildProposal(app, bankTxn())
	existing := replacement.Clone()
	existing.Children[0].Amount += 10_000
	existing.Children[1].Amount -= 10_000

	outcome := tg.Classify(existing, replacement, false, nil)
	assert.Equal(t, AdjustItemizedTax, outcome)
}

func TestClassify_Retag(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	app := testApportionment(t)

	existing := bankTxn()
	existing.Description = "Amazon.com: Old Widget"
	existing.Category = DefaultCategory

	replacement := tg.BuildProposal(app, existing)
	outcome := tg.Classify(existing, replacement, false, nil)
	assert.Equal(t, Retag, outcome)
}

func TestClassify_MiscCharge(t *testing.T) {
	tg := NewTagger(DefaultConfig())
	group := &grouper.PurchaseGroup{
		Key:   "A",
		Order: &records.Order{OrderID: "A", Total: 25_000_000},
	}
	app, err := apportioner.Apportion(group, 25_000_000)
	require.NoError(t, err)

	existing := bankTxn()
	existing.Amount = 25_000_000
	replacement := tg.BuildProposal(app, existing)

	outcome := tg.Classify(existing, replacement, app.MiscCharge, nil)
	assert.Equal(t, MiscCharge, outcome)
}

func TestMapCategory(t *testing.T) {
	assert.Equal(t, "Toys", MapCategory("Toy"))
	assert.Equal(t, "Books", MapCategory("Abis Book"))
	assert.Equal(t, DefaultCategory, MapCategory("Something Unmapped"))
	assert.Equal(t, DefaultCategory, MapCategory(""))
}

func TestIsManagedCategory(t *testing.T) {
	assert.True(t, IsManagedCategory(DefaultCategory))
	assert.True(t, IsManagedCategory(RefundCategory))
	assert.True(t, IsManagedCategory("Toys"))
	assert.False(t, IsManagedCategory("Reimbursable - Work"))
}

func TestStats(t *testing.T) {
	s := NewStats()
	assert.Len(t, s, 8, "every counter present at zero")

	s.Add(NewTag)
	s.Add(NewTag)
	s.Add(Retag)
	assert.Equal(t, 2, s[NewTag])
	assert.Equal(t, 1, s[Retag])

	other := NewStats()
	other.Add(NewTag)
	s.Merge(other)
	assert.Equal(t, 3, s[NewTag])
}
