// Package pricing holds the arithmetic shared by order screens, the API and
// background jobs: line totals, order totals and contract end dates.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineTotal is units x price per unit, rounded to cents.
func LineTotal(units int, pricePerUnit decimal.Decimal) decimal.Decimal {
	return pricePerUnit.Mul(decimal.NewFromInt(int64(units))).Round(2)
}

// Line is anything that can report its units and unit price.
type Line interface {
	LineUnits() int
	LinePrice() decimal.Decimal
}

// Subtotal sums the line totals.
func Subtotal[L Line](lines []L) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.LineUnits(), l.LinePrice()))
	}
	return total
}

// GrandTotal adds the one-time fee to the subtotal.
func GrandTotal(subtotal, oneTimeFee decimal.Decimal) decimal.Decimal {
	return subtotal.Add(oneTimeFee).Round(2)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves start forward by months calendar months. Day overflow rolls
// into the following month the way time.AddDate does (Jan 31 + 1 month is
// Mar 2 or 3).
func AddMonths(start time.Time, months int) time.Time {
	return Day(start).AddDate(0, months, 0)
}
