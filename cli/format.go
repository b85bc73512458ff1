// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
)

// FormatDate formats a date for tables, e.g. "Mon 10 Mar 2025".
func FormatDate(d calendar.Date) string {
	return d.Time().Format("Mon 02 Jan 2006")
}

// FormatDays formats a day count, e.g. "1 day", "14 days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// ParseMoney parses a dollar amount such as "400", "$1,299.95" or "19.9"
// into cents. More than two decimal places is an error.
func ParseMoney(s string) (cashflow.Cents, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	return cashflow.FromDecimal(d.Mul(decimal.NewFromInt(100))), nil
}

// Describe joins event descriptions for one table cell.
func Describe(events []cashflow.CashEvent) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = e.Description
	}
	return strings.Join(parts, ", ")
}
