// Package currency provides an exact fixed-point monetary type for
// reconciliation arithmetic.
//
// All amounts are MicroUSD: int64 micro-dollars, 1/1,000,000 of a dollar.
// Sums and proportional splits are exact integer operations, so no currency
// units are lost or invented when a charge is apportioned across items.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MicroUSD is a USD amount in micro-dollars (1/1,000,000 USD).
type MicroUSD int64

// CentMicros is the number of micro-dollars in one cent.
const CentMicros MicroUSD = 10_000

// ErrZeroWeights is returned by Split when the weights sum to zero but
// there is a non-zero total to distribute.
var ErrZeroWeights = errors.New("currency: cannot split non-zero total across zero-sum weights")

// Add returns m + other.
func (m MicroUSD) Add(other MicroUSD) MicroUSD {
	return m + other
}

// Sub returns m - other.
func (m MicroUSD) Sub(other MicroUSD) MicroUSD {
	return m - other
}

// Neg returns -m.
func (m MicroUSD) Neg() MicroUSD {
	return -m
}

// Abs returns the absolute value of m.
func (m MicroUSD) Abs() MicroUSD {
	if m < 0 {
		return -m
	}
	return m
}

// IsDebit reports whether the amount represents a purchase charge.
func (m MicroUSD) IsDebit() bool {
	return m > 0
}

// MulRational returns m * num / den using floor division.
func (m MicroUSD) MulRational(num, den int64) MicroUSD {
	return MicroUSD(floorDiv(int64(m)*num, den))
}

// Sum returns the exact sum of the given amounts.
func Sum(amounts []MicroUSD) MicroUSD {
	var total MicroUSD
	for _, a := range amounts {
		total += a
	}
	return total
}

// Split distributes total across weights proportionally, returning parts
// that sum exactly to total.
//
// Each part starts as floor(total * weight / sum(weights)); the leftover
// units are then handed out one at a time in descending order of the
// post-floor fractional remainder, ties broken by input order.
func Split(total MicroUSD, weights []MicroUSD) ([]MicroUSD, error) {
	return splitUnits(total, weights, 1)
}

// SplitCents is Split performed at whole-cent granularity. Report amounts
// are always cent-aligned, and apportioned tax/shipping must land on cent
// boundaries to compare against ledger entries. Totals that are not
// cent-aligned fall back to a micro-exact split.
func SplitCents(total MicroUSD, weights []MicroUSD) ([]MicroUSD, error) {
	if total%CentMicros != 0 {
		return Split(total, weights)
	}
	return splitUnits(total, weights, int64(CentMicros))
}

// splitUnits splits total in multiples of quantum micro-dollars.
func splitUnits(total MicroUSD, weights []MicroUSD, quantum int64) ([]MicroUSD, error) {
	var weightSum int64
	for _, w := range weights {
		weightSum += int64(w)
	}
	if weightSum == 0 {
		if total == 0 {
			return make([]MicroUSD, len(weights)), nil
		}
		return nil, ErrZeroWeights
	}

	units := int64(total) / quantum

	parts := make([]MicroUSD, len(weights))
	remainders := make([]int64, len(weights))
	var distributed int64
	for i, w := range weights {
		ideal := units * int64(w)
		part := floorDiv(ideal, weightSum)
		remainders[i] = ideal - part*weightSum
		parts[i] = MicroUSD(part * quantum)
		distributed += part
	}

	// Hand out the leftover units, largest fractional remainder first.
	leftover := units - distributed
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for i := int64(0); i < leftover; i++ {
		parts[order[i%int64(len(order))]] += MicroUSD(quantum)
	}

	return parts, nil
}

// floorDiv divides a by b rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Parse converts a report amount string like "$1,234.56" or "-$5.00" into
// MicroUSD. The empty string parses as zero, matching how the order history
// reports leave blank cells for absent charges.
func Parse(s string) (MicroUSD, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, nil
	}

	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	micros := d.Shift(6)
	if !micros.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-micro precision", s)
	}

	value := MicroUSD(micros.IntPart())
	if negative {
		value = -value
	}
	return value, nil
}

// String formats the amount as a dollar string, e.g. "$12.34" or "-$0.07".
// Sub-cent precision is dropped in display only; the value stays exact.
func (m MicroUSD) String() string {
	sign := ""
	v := m
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := (int64(v) + int64(CentMicros)/2) / int64(CentMicros)
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
