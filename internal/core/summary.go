// Package core holds the expense domain model shared by the ledger
// backends, the CLI and the mail ingestion pipeline.
package core

import "github.com/shopspring/decimal"

// Total sums the amounts of all expenses.
func Total(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// TotalForMonth sums the amounts of expenses whose date falls in the
// given month (1-12), regardless of year.
func TotalForMonth(expenses []Expense, month int) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.Date.Month() == month {
			total = total.Add(e.Amount)
		}
	}
	return total
}
