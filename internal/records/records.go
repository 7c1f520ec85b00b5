// Package records holds the normalized in-memory model of an Amazon order
// history: Orders, Items, and Refunds, built once from the parsed report
// rows and read-only afterward except for the derived match flags.
package records

import (
	"time"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
)

// Order is one row of the Orders report. Amazon emits one row per
// shipment/charge, so an order split across shipments appears as multiple
// Order values sharing the same OrderID.
type Order struct {
	OrderID   string
	OrderDate time.Time
	ShipDate  time.Time
	Website   string
	Payment   string

	Subtotal  currency.MicroUSD // item subtotal for this shipment
	Tax       currency.MicroUSD
	Shipping  currency.MicroUSD
	Promotion currency.MicroUSD
	Total     currency.MicroUSD // total charged for this shipment

	// ItemsMatched is derived: true once every item belonging to this
	// order has been bound to a ledger transaction.
	ItemsMatched bool
}

// Item is one product line within an order. It references its owning order
// by ID; multiple items may share an order.
type Item struct {
	OrderID   string
	OrderDate time.Time
	Title     string
	Category  string // Amazon's product category, e.g. "Toy"
	Quantity  int

	UnitPrice currency.MicroUSD
	Subtotal  currency.MicroUSD // quantity * unit price
	Tax       currency.MicroUSD
	Total     currency.MicroUSD // subtotal + tax

	// Matched is derived: true once this item has been bound to a ledger
	// transaction.
	Matched bool
}

// Refund is a credit issued against a previously purchased item.
type Refund struct {
	OrderID    string
	RefundDate time.Time // zero when the refund is still pending
	Title      string
	Amount     currency.MicroUSD
	Tax        currency.MicroUSD
}

// TransactAmount returns the total credited for this refund.
func (r *Refund) TransactAmount() currency.MicroUSD {
	return r.Amount + r.Tax
}

// Pending reports whether the refund has not posted yet.
func (r *Refund) Pending() bool {
	return r.RefundDate.IsZero()
}

// TransactDate returns the date the charge for this shipment hit the
// ledger; the ship date when present, else the order date.
func (o *Order) TransactDate() time.Time {
	if !o.ShipDate.IsZero() {
		return o.ShipDate
	}
	return o.OrderDate
}

// ItemSubtotals returns the subtotal of each item, in input order.
func ItemSubtotals(items []*Item) []currency.MicroUSD {
	subtotals := make([]currency.MicroUSD, len(items))
	for i, item := range items {
		subtotals[i] = item.Subtotal
	}
	return subtotals
}

// ItemsByOrderID buckets items under their owning order identifier,
// preserving report order within each bucket.
func ItemsByOrderID(items []*Item) map[string][]*Item {
	byOrder := make(map[string][]*Item)
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder
}

// OrdersByID buckets order rows (shipments) under their order identifier.
func OrdersByID(orders []*Order) map[string][]*Order {
	byID := make(map[string][]*Order)
	for _, o := range orders {
		byID[o.OrderID] = append(byID[o.OrderID], o)
	}
	return byID
}

// RecomputeItemsMatched refreshes the derived Order flag: true iff every
// item belonging to the order has been matched. Called after a matching
// pass so split orders only flip once all their shipments are bound.
func RecomputeItemsMatched(orders []*Order, items []*Item) {
	byOrder := ItemsByOrderID(items)
	for _, o := range orders {
		matched := true
		for _, item := range byOrder[o.OrderID] {
			if !item.Matched {
				matched = false
				break
			}
		}
		o.ItemsMatched = matched && len(byOrder[o.OrderID]) > 0
	}
}

// DateRange returns the earliest and latest order dates across the given
// orders. ok is false when orders is empty.
func DateRange(orders []*Order) (first, last time.Time, ok bool) {
	if len(orders) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = orders[0].OrderDate, orders[0].OrderDate
	for _, o := range orders[1:] {
		if o.OrderDate.Before(first) {
			first = o.OrderDate
		}
		if o.OrderDate.After(last) {
			last = o.OrderDate
		}
	}
	return first, last, true
}
