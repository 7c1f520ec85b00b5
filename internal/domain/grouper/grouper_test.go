package grouper

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
	"github.com/mmm/mint-amazon-tagger/internal/records"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGroup_SingleShipment(t *testing.T) {
	orders := []*records.Order{
		{OrderID: "A", Subtotal: 46_000_000, Total: 50_000_000, ShipDate: date(2024, 3, 3)},
	}
	items := []*records.Item{
		{OrderID: "A", Title: "Widget A", Subtotal: 20_000_000},
		{OrderID: "A", Title: "Widget B", Subtotal: 26_000_000},
	}

	groups := Group(orders, items, nil, testLogger)

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "A", g.Key)
	assert.True(t, g.IsDebit())
	assert.False(t, g.Ambiguous)
	assert.Len(t, g.Items, 2)
	assert.Equal(t, currency.MicroUSD(50_000_000), g.Target())
	assert.Equal(t, date(2024, 3, 3), g.TransactDate())
}

func TestGroup_SplitShipments(t *testing.T) {
	// One order charged as two shipments: $30 subtotal and $20 subtotal.
	// Items must partition exactly by subtotal across the two groups.
	orders := []*records.Order{
		{OrderID: "A", Subtotal: 30_000_000, Total: 32_400_000},
		{OrderID: "A", Subtotal: 20_000_000, Total: 21_600_000},
	}
	items := []*records.Item{
		{OrderID: "A", Title: "Widget A", Subtotal: 30_000_000},
		{OrderID: "A", Title: "Widget B", Subtotal: 20_000_000},
	}

	groups := Group(orders, items, nil, testLogger)

	require.Len(t, groups, 2)
	assert.Equal(t, "A#1", groups[0].Key)
	assert.Equal(t, "A#2", groups[1].Key)

	require.Len(t, groups[0].Items, 1)
	assert.Equal(t, "Widget A", groups[0].Items[0].Title)
	require.Len(t, groups[1].Items, 1)
	assert.Equal(t, "Widget B", groups[1].Items[0].Title)
}

func TestGroup_SplitShipments_MultiItemSubset(t *testing.T) {
	// First shipment carries two items whose subtotals sum to its reported
	// subtotal; the remaining item lands on the second shipment.
	orders := []*records.Order{
		{OrderID: "A", Subtotal: 25_000_000},
		{OrderID: "A", Subtotal: 10_000_000},
	}
	items := []*records.Item{
		{OrderID: "A", Title: "one", Subtotal: 15_000_000},
		{OrderID: "A", Title: "two", Subtotal: 10_000_000},
		{OrderID: "A", Title: "three", Subtotal: 10_000_000},
	}

	groups := Group(orders, items, nil, testLogger)

	require.Len(t, groups, 2)
	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, "one", groups[0].Items[0].Title)
	assert.Equal(t, "two", groups[0].Items[1].Title)
	require.Len(t, groups[1].Items, 1)
	assert.Equal(t, "three", groups[1].Items[0].Title)
}

func TestGroup_SplitShipments_Ambiguous(t *testing.T) {
	// No subset of item subtotals matches the first shipment's subtotal, so
	// the partition fails and both groups are flagged ambiguous.
	orders := []*records.Order{
		{OrderID: "A", Subtotal: 17_000_000},
		{OrderID: "A", Subtotal: 33_000_000},
	}
	items := []*records.Item{
		{OrderID: "A", Subtotal: 30_000_000},
		{OrderID: "A", Subtotal: 20_000_000},
	}

	groups := Group(orders, items, nil, testLogger)

	require.Len(t, groups, 2)
	assert.True(t, groups[0].Ambiguous)
	assert.True(t, groups[1].Ambiguous)
	assert.Empty(t, groups[0].Items)
}

func TestGroup_Refunds(t *testing.T) {
	refunds := []*records.Refund{
		{OrderID: "A", Title: "Widget A", Amount: 14_000_000, Tax: 1_000_000, RefundDate: date(2024, 3, 10)},
	}

	groups := Group(nil, nil, refunds, testLogger)

	require.Len(t, groups, 1)
	g := groups[0]
	assert.False(t, g.IsDebit())
	assert.Equal(t, "A", g.OrderID())
	assert.Equal(t, currency.MicroUSD(-15_000_000), g.Target(), "refund target is a credit")
	assert.Equal(t, date(2024, 3, 10), g.TransactDate())
}

func TestGroup_DebitsBeforeRefunds(t *testing.T) {
	orders := []*records.Order{{OrderID: "A", Subtotal: 5_000_000}}
	items := []*records.Item{{OrderID: "A", Subtotal: 5_000_000}}
	refunds := []*records.Refund{{OrderID: "A", Title: "x", Amount: 5_000_000}}

	groups := Group(orders, items, refunds, testLogger)

	require.Len(t, groups, 2)
	assert.True(t, groups[0].IsDebit())
	assert.False(t, groups[1].IsDebit())
}

func TestGroup_OrderWithoutItems(t *testing.T) {
	// Gift card / digital charges have an order row but no items report
	// rows; the group comes out empty-handed, not ambiguous.
	orders := []*records.Order{{OrderID: "A", Total: 25_000_000}}

	groups := Group(orders, nil, nil, testLogger)

	require.Len(t, groups, 1)
	assert.False(t, groups[0].Ambiguous)
	assert.Empty(t, groups[0].Items)
}
