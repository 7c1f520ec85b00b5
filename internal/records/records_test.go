package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOrder_TransactDate(t *testing.T) {
	o := &Order{
		OrderDate: date(2024, 3, 1),
		ShipDate:  date(2024, 3, 3),
	}
	assert.Equal(t, date(2024, 3, 3), o.TransactDate())

	// Falls back to the order date when no ship date was reported.
	o.ShipDate = time.Time{}
	assert.Equal(t, date(2024, 3, 1), o.TransactDate())
}

func TestRefund_TransactAmount(t *testing.T) {
	r := &Refund{Amount: 14_000_000, Tax: 1_000_000}
	assert.Equal(t, currency.MicroUSD(15_000_000), r.TransactAmount())
}

func TestRefund_Pending(t *testing.T) {
	assert.True(t, (&Refund{}).Pending())
	assert.False(t, (&Refund{RefundDate: date(2024, 3, 10)}).Pending())
}

func TestItemSubtotals(t *testing.T) {
	items := []*Item{
		{Subtotal: 20_000_000},
		{Subtotal: 26_000_000},
	}
	assert.Equal(t, []currency.MicroUSD{20_000_000, 26_000_000}, ItemSubtotals(items))
}

func TestItemsByOrderID_PreservesOrder(t *testing.T) {
	items := []*Item{
		{OrderID: "A", Title: "first"},
		{OrderID: "B", Title: "other"},
		{OrderID: "A", Title: "second"},
	}

	byOrder := ItemsByOrderID(items)

	require.Len(t, byOrder["A"], 2)
	assert.Equal(t, "first", byOrder["A"][0].Title)
	assert.Equal(t, "second", byOrder["A"][1].Title)
	require.Len(t, byOrder["B"], 1)
}

func TestRecomputeItemsMatched(t *testing.T) {
	orders := []*Order{
		{OrderID: "A"},
		{OrderID: "B"},
		{OrderID: "C"}, // no items at all
	}
	items := []*Item{
		{OrderID: "A", Matched: true},
		{OrderID: "A", Matched: true},
		{OrderID: "B", Matched: true},
		{OrderID: "B", Matched: false},
	}

	RecomputeItemsMatched(orders, items)

	assert.True(t, orders[0].ItemsMatched)
	assert.False(t, orders[1].ItemsMatched, "one unmatched item keeps the order unmatched")
	assert.False(t, orders[2].ItemsMatched, "an order with no items is never matched")
}

func TestRecomputeItemsMatched_SplitOrder(t *testing.T) {
	// Two shipment rows of the same order share the flag: both flip only
	// once every item of the order is matched.
	orders := []*Order{
		{OrderID: "A"},
		{OrderID: "A"},
	}
	items := []*Item{
		{OrderID: "A", Matched: true},
		{OrderID: "A", Matched: false},
	}

	RecomputeItemsMatched(orders, items)
	assert.False(t, orders[0].ItemsMatched)
	assert.False(t, orders[1].ItemsMatched)

	items[1].Matched = true
	RecomputeItemsMatched(orders, items)
	assert.True(t, orders[0].ItemsMatched)
	assert.True(t, orders[1].ItemsMatched)
}

func TestDateRange(t *testing.T) {
	_, _, ok := DateRange(nil)
	assert.False(t, ok)

	orders := []*Order{
		{OrderDate: date(2024, 3, 5)},
		{OrderDate: date(2024, 2, 1)},
		{OrderDate: date(2024, 4, 10)},
	}
	first, last, ok := DateRange(orders)
	require.True(t, ok)
	assert.Equal(t, date(2024, 2, 1), first)
	assert.Equal(t, date(2024, 4, 10), last)
}
