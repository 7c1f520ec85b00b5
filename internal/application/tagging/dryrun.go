package tagging

import (
	"fmt"
	"io"

	"github.com/mmm/mint-amazon-tagger/internal/ledger"
)

// invoiceURL links an order ID to its Amazon invoice page.
func invoiceURL(orderID string) string {
	return fmt.Sprintf("https://www.amazon.com/gp/css/summary/print.html?ie=UTF8&orderID=%s", orderID)
}

// PrintDryRun writes the original-versus-proposed report for every update:
// the existing entry (or its itemized children) first, then the proposal,
// proposal entries in reverse order when there are multiple.
func PrintDryRun(w io.Writer, result *RunResult) {
	for _, u := range result.Updates {
		kind := "Order"
		if !u.Group.IsDebit() {
			kind = "Refund"
		}
		orderID := u.Group.OrderID()
		fmt.Fprintf(w, "\nFor Amazon %s: %s\nInvoice URL: %s\n", kind, orderID, invoiceURL(orderID))

		if len(u.Original.Children) > 0 {
			fmt.Fprintln(w)
			for i, c := range u.Original.Children {
				fmt.Fprintf(w, "%d) Current: \t%s\n", i+1, dryRunLine(c))
			}
		} else {
			fmt.Fprintf(w, "\nCurrent: \t%s\n", dryRunLine(u.Original))
		}

		if len(u.Replacement.Children) == 0 {
			fmt.Fprintf(w, "\nProposed: \t%s\n", dryRunLine(u.Replacement))
		} else {
			fmt.Fprintln(w)
			children := u.Replacement.Children
			for i := range children {
				c := children[len(children)-1-i]
				fmt.Fprintf(w, "%d) Proposed: \t%s\n", i+1, dryRunLine(c))
			}
		}

		fmt.Fprintf(w, "Outcome: %s\n", u.Outcome)
	}
}

// dryRunLine renders one entry as date, amount, category, description.
func dryRunLine(t *ledger.Transaction) string {
	return fmt.Sprintf("%s\t%s\t%s\t%s",
		t.Date.Format("2006-01-02"), t.Amount, t.Category, t.Description)
}
