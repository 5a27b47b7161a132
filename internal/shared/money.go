package shared

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts travel as JSON numbers, e.g. {"price": 99.99}
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseMoney parses a form amount. Blank input is zero.
func ParseMoney(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return d.Round(2), nil
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
