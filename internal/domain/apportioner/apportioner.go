// Package apportioner distributes a matched group's shared costs (tax,
// shipping, promotions) across its items proportionally to item subtotal.
// The adjusted item totals always sum exactly to the bound transaction's
// amount; rounding remainders are assigned largest-remainder-first, never
// lost.
package apportioner

import (
	"fmt"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
	"github.com/mmm/mint-amazon-tagger/internal/domain/grouper"
	"github.com/mmm/mint-amazon-tagger/internal/records"
)

// ItemShare is one item's slice of the charge after apportionment.
type ItemShare struct {
	Item      *records.Item
	Subtotal  currency.MicroUSD
	Tax       currency.MicroUSD
	Shipping  currency.MicroUSD
	Promotion currency.MicroUSD

	// Total = Subtotal + Tax + Shipping - Promotion.
	Total currency.MicroUSD
}

// Apportionment is the per-item breakdown of one matched group.
type Apportionment struct {
	Group  *grouper.PurchaseGroup
	Shares []ItemShare

	// MiscCharge is true when the group carried no itemized lines (gift
	// card, digital charge); Shares then holds a single synthetic entry
	// equal to the full charge.
	MiscCharge bool
}

// Apportion breaks the group's bound charge down per item. chargeAmount is
// the bound transaction's (signed) amount; for debit groups it equals the
// order row's total charged.
func Apportion(group *grouper.PurchaseGroup, chargeAmount currency.MicroUSD) (*Apportionment, error) {
	if !group.IsDebit() || len(group.Items) == 0 {
		return &Apportionment{
			Group:      group,
			MiscCharge: group.IsDebit(),
			Shares:     []ItemShare{{Total: chargeAmount.Abs()}},
		}, nil
	}

	order := group.Order
	weights := records.ItemSubtotals(group.Items)

	tax, err := currency.SplitCents(order.Tax, weights)
	if err != nil {
		return nil, fmt.Errorf("apportioning tax for %s: %w", group.Key, err)
	}
	shipping, err := currency.SplitCents(order.Shipping, weights)
	if err != nil {
		return nil, fmt.Errorf("apportioning shipping for %s: %w", group.Key, err)
	}
	promotion, err := currency.SplitCents(order.Promotion, weights)
	if err != nil {
		return nil, fmt.Errorf("apportioning promotion for %s: %w", group.Key, err)
	}

	shares := make([]ItemShare, len(group.Items))
	var running currency.MicroUSD
	for i, item := range group.Items {
		shares[i] = ItemShare{
			Item:      item,
			Subtotal:  item.Subtotal,
			Tax:       tax[i],
			Shipping:  shipping[i],
			Promotion: promotion[i],
			Total:     item.Subtotal + tax[i] + shipping[i] - promotion[i],
		}
		running += shares[i].Total
	}

	// Gift cards and points leave the charge short of the itemized sum;
	// fold the residual into the tax portions so the shares reconcile
	// exactly with what the ledger saw.
	if residual := chargeAmount - running; residual != 0 {
		adjust, err := currency.SplitCents(residual, weights)
		if err != nil {
			return nil, fmt.Errorf("apportioning residual for %s: %w", group.Key, err)
		}
		for i := range shares {
			shares[i].Tax += adjust[i]
			shares[i].Total += adjust[i]
		}
	}

	return &Apportionment{Group: group, Shares: shares}, nil
}

// Sum returns the exact sum of the share totals.
func (a *Apportionment) Sum() currency.MicroUSD {
	var total currency.MicroUSD
	for _, s := range a.Shares {
		total += s.Total
	}
	return total
}
