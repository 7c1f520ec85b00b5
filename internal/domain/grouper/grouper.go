// Package grouper clusters parsed Orders, Items, and Refunds into
// PurchaseGroups: the charge-sized units the matcher binds to ledger
// transactions. One group per shipment/charge row for debits, one group
// per refund for credits.
package grouper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
	"github.com/mmm/mint-amazon-tagger/internal/records"
)

// PurchaseGroup is one charge-sized unit: a shipment row plus the items it
// carried, or a single refund.
type PurchaseGroup struct {
	// Key identifies the group: the order ID, suffixed with the shipment
	// index when an order was split across multiple charges.
	Key string

	Order    *records.Order   // owning shipment row; nil for refund groups
	Siblings []*records.Order // every shipment row of the same order
	Items    []*records.Item  // items charged on this shipment
	Refund   *records.Refund  // set only for refund groups

	// Ambiguous marks a split order whose items could not be partitioned
	// across shipments by exact subtotal; such groups are never bound.
	Ambiguous bool
}

// IsDebit reports whether the group represents a purchase charge.
func (g *PurchaseGroup) IsDebit() bool {
	return g.Refund == nil
}

// OrderID returns the owning order identifier.
func (g *PurchaseGroup) OrderID() string {
	if g.Refund != nil {
		return g.Refund.OrderID
	}
	return g.Order.OrderID
}

// Target is the signed ledger amount this group should match: positive for
// a debit charge, negative for a refund credit.
func (g *PurchaseGroup) Target() currency.MicroUSD {
	if g.Refund != nil {
		return -g.Refund.TransactAmount()
	}
	return g.Order.Total
}

// TransactDate is the date the group's charge or credit should appear on
// the ledger. Zero for refunds that have not posted.
func (g *PurchaseGroup) TransactDate() time.Time {
	if g.Refund != nil {
		return g.Refund.RefundDate
	}
	return g.Order.TransactDate()
}

// Group builds the ordered set of PurchaseGroups from the parsed records.
// Debit groups come out in Orders-report order, refund groups after them
// in Refunds-report order.
func Group(orders []*records.Order, items []*records.Item, refunds []*records.Refund, logger *slog.Logger) []*PurchaseGroup {
	byID := records.OrdersByID(orders)
	itemsByOrder := records.ItemsByOrderID(items)

	// Partition each order's items across its shipment rows once, keyed by
	// order ID, then emit groups in report order.
	type partition struct {
		perShipment [][]*records.Item
		ambiguous   bool
	}
	partitions := make(map[string]*partition)
	for id, shipments := range byID {
		owned := itemsByOrder[id]
		if len(shipments) == 1 {
			partitions[id] = &partition{perShipment: [][]*records.Item{owned}}
			continue
		}
		perShipment, ok := partitionItems(shipments, owned)
		if !ok {
			logger.Warn("Could not partition items across split shipments",
				"order_id", id,
				"shipments", len(shipments),
				"items", len(owned))
			partitions[id] = &partition{ambiguous: true}
			continue
		}
		partitions[id] = &partition{perShipment: perShipment}
	}

	shipmentIndex := make(map[string]int)
	var groups []*PurchaseGroup
	for _, order := range orders {
		id := order.OrderID
		idx := shipmentIndex[id]
		shipmentIndex[id] = idx + 1

		key := id
		if len(byID[id]) > 1 {
			key = fmt.Sprintf("%s#%d", id, idx+1)
		}

		group := &PurchaseGroup{
			Key:      key,
			Order:    order,
			Siblings: byID[id],
		}
		part := partitions[id]
		if part.ambiguous {
			group.Ambiguous = true
		} else if idx < len(part.perShipment) {
			group.Items = part.perShipment[idx]
		}
		groups = append(groups, group)
	}

	for _, refund := range refunds {
		groups = append(groups, &PurchaseGroup{
			Key:    fmt.Sprintf("%s-refund-%s", refund.OrderID, refund.Title),
			Refund: refund,
		})
	}

	return groups
}

// partitionItems assigns items to shipments so that each shipment's item
// subtotals sum exactly to its reported subtotal. The search is first-fit
// in input order, which makes the result deterministic. ok is false when
// no exact partition exists.
func partitionItems(shipments []*records.Order, items []*records.Item) ([][]*records.Item, bool) {
	perShipment := make([][]*records.Item, len(shipments))
	assigned := make([]bool, len(items))

	for si, shipment := range shipments {
		picked, ok := pickSubset(items, assigned, shipment.Subtotal)
		if !ok {
			return nil, false
		}
		for _, ii := range picked {
			assigned[ii] = true
			perShipment[si] = append(perShipment[si], items[ii])
		}
	}

	for _, done := range assigned {
		if !done {
			return nil, false
		}
	}
	return perShipment, true
}

// pickSubset finds the first subset (by input order) of unassigned items
// whose subtotals sum exactly to target.
func pickSubset(items []*records.Item, assigned []bool, target currency.MicroUSD) ([]int, bool) {
	var picked []int
	var search func(start int, remaining currency.MicroUSD) bool
	search = func(start int, remaining currency.MicroUSD) bool {
		if remaining == 0 {
			return true
		}
		for i := start; i < len(items); i++ {
			if assigned[i] || items[i].Subtotal > remaining {
				continue
			}
			picked = append(picked, i)
			if search(i+1, remaining-items[i].Subtotal) {
				return true
			}
			picked = picked[:len(picked)-1]
		}
		return false
	}
	if !search(0, target) {
		return nil, false
	}
	return picked, true
}
