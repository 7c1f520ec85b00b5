// Package reports parses Amazon "Order History Report" CSV files (Items,
// Orders, Refunds) into typed records. Fields are looked up by header name
// so column reordering between report vintages does not break parsing.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mmm/mint-amazon-tagger/internal/currency"
	"github.com/mmm/mint-amazon-tagger/internal/progress"
	"github.com/mmm/mint-amazon-tagger/internal/records"
)

// ParseError describes a malformed row in one of the report files.
type ParseError struct {
	Report string // "Items", "Orders", or "Refunds"
	Line   int    // 1-based data row number
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s report line %d: field %q: %v", e.Report, e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// row provides header-keyed access to one CSV record.
type row struct {
	report  string
	line    int
	headers map[string]int
	fields  []string
}

func (r *row) get(name string) string {
	idx, ok := r.headers[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r *row) amount(name string) (currency.MicroUSD, error) {
	v, err := currency.Parse(r.get(name))
	if err != nil {
		return 0, &ParseError{Report: r.report, Line: r.line, Field: name, Err: err}
	}
	return v, nil
}

func (r *row) date(name string, required bool) (time.Time, error) {
	s := r.get(name)
	if s == "" {
		if required {
			return time.Time{}, &ParseError{
				Report: r.report, Line: r.line, Field: name,
				Err: fmt.Errorf("empty date"),
			}
		}
		return time.Time{}, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, &ParseError{Report: r.report, Line: r.line, Field: name, Err: err}
	}
	return t, nil
}

func (r *row) quantity(name string) (int, error) {
	s := r.get(name)
	if s == "" {
		return 1, nil
	}
	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ParseError{Report: r.report, Line: r.line, Field: name, Err: err}
	}
	if q < 1 {
		q = 1
	}
	return q, nil
}

// parseDate accepts the formats Amazon has used across report vintages.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"01/02/06", "01/02/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}

// readRows reads the CSV stream and yields header-keyed rows.
func readRows(r io.Reader, report string, fn func(*row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return &ParseError{Report: report, Line: 0, Field: "header", Err: err}
	}
	headers := make(map[string]int, len(header))
	for i, h := range header {
		headers[strings.TrimSpace(h)] = i
	}

	line := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return &ParseError{Report: report, Line: line, Field: "row", Err: err}
		}
		if err := fn(&row{report: report, line: line, headers: headers, fields: fields}); err != nil {
			return err
		}
	}
}

// ParseOrders parses the Orders report. Amazon emits one row per
// shipment/charge, so split orders yield multiple rows per order ID.
func ParseOrders(r io.Reader, newProgress progress.DeterminateFactory) ([]*records.Order, error) {
	if newProgress == nil {
		newProgress = progress.NoDeterminate
	}
	p := newProgress("Parsing Orders report", 0)
	defer p.Finish()

	var orders []*records.Order
	err := readRows(r, "Orders", func(row *row) error {
		orderDate, err := row.date("Order Date", true)
		if err != nil {
			return err
		}
		shipDate, err := row.date("Shipment Date", false)
		if err != nil {
			return err
		}
		subtotal, err := row.amount("Subtotal")
		if err != nil {
			return err
		}
		tax, err := row.amount("Tax Charged")
		if err != nil {
			return err
		}
		shipping, err := row.amount("Shipping Charge")
		if err != nil {
			return err
		}
		promotion, err := row.amount("Total Promotions")
		if err != nil {
			return err
		}
		total, err := row.amount("Total Charged")
		if err != nil {
			return err
		}

		orders = append(orders, &records.Order{
			OrderID:   row.get("Order ID"),
			OrderDate: orderDate,
			ShipDate:  shipDate,
			Website:   row.get("Website"),
			Payment:   row.get("Payment Instrument Type"),
			Subtotal:  subtotal,
			Tax:       tax,
			Shipping:  shipping,
			Promotion: promotion,
			Total:     total,
		})
		p.Advance(1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ParseItems parses the Items report.
func ParseItems(r io.Reader, newProgress progress.DeterminateFactory) ([]*records.Item, error) {
	if newProgress == nil {
		newProgress = progress.NoDeterminate
	}
	p := newProgress("Parsing Items report", 0)
	defer p.Finish()

	var items []*records.Item
	err := readRows(r, "Items", func(row *row) error {
		orderDate, err := row.date("Order Date", true)
		if err != nil {
			return err
		}
		quantity, err := row.quantity("Quantity")
		if err != nil {
			return err
		}
		unitPrice, err := row.amount("Purchase Price Per Unit")
		if err != nil {
			return err
		}
		subtotal, err := row.amount("Item Subtotal")
		if err != nil {
			return err
		}
		tax, err := row.amount("Item Subtotal Tax")
		if err != nil {
			return err
		}
		total, err := row.amount("Item Total")
		if err != nil {
			return err
		}

		items = append(items, &records.Item{
			OrderID:   row.get("Order ID"),
			OrderDate: orderDate,
			Title:     row.get("Title"),
			Category:  row.get("Category"),
			Quantity:  quantity,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
			Tax:       tax,
			Total:     total,
		})
		p.Advance(1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ParseRefunds parses the Refunds report. The refund date may be blank for
// refunds that have been issued but not posted.
func ParseRefunds(r io.Reader, newProgress progress.DeterminateFactory) ([]*records.Refund, error) {
	if newProgress == nil {
		newProgress = progress.NoDeterminate
	}
	p := newProgress("Parsing Refunds report", 0)
	defer p.Finish()

	var refunds []*records.Refund
	err := readRows(r, "Refunds", func(row *row) error {
		refundDate, err := row.date("Refund Date", false)
		if err != nil {
			return err
		}
		amount, err := row.amount("Refund Amount")
		if err != nil {
			return err
		}
		tax, err := row.amount("Refund Tax Amount")
		if err != nil {
			return err
		}

		refunds = append(refunds, &records.Refund{
			OrderID:    row.get("Order ID"),
			RefundDate: refundDate,
			Title:      row.get("Title"),
			Amount:     amount,
			Tax:        tax,
		})
		p.Advance(1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refunds, nil
}
