// Package ledger provides the durable expense table behind a small
// transactional interface: read-all, append, and atomic rewrite on
// mutation. Two backends implement it, a flat CSV file and SQLite.
//
// The store assumes a single writer. ID assignment reads the current
// maximum and then writes, so concurrent mutation from two processes
// is not safe; every backend serializes its own mutations in-process.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"registro/internal/core"
)

// ErrNotFound is returned by Update and Delete when no expense has the
// requested ID.
var ErrNotFound = errors.New("expense not found")

// UpdateFields carries the fields of an update. Nil fields keep their
// prior values.
type UpdateFields struct {
	Date        *core.Date
	Description *string
	Amount      *decimal.Decimal
}

// IsEmpty reports whether no field is set.
func (f UpdateFields) IsEmpty() bool {
	return f.Date == nil && f.Description == nil && f.Amount == nil
}

// Store is the ledger contract the CLI and the ingestion pipeline rely on.
type Store interface {
	// Append assigns the next ID and writes the expense. New IDs are
	// strictly greater than every ID the store has seen, even after the
	// maximum-ID row was deleted.
	Append(ctx context.Context, e core.Expense) (int64, error)

	// Scan returns all expenses in storage order (not date order).
	Scan(ctx context.Context) ([]core.Expense, error)

	// Update overwrites only the supplied fields of the expense with the
	// given ID. Returns ErrNotFound when the ID is absent.
	Update(ctx context.Context, id int64, fields UpdateFields) error

	// Delete removes the expense with the given ID. Returns ErrNotFound
	// when the ID is absent.
	Delete(ctx context.Context, id int64) error

	// AddExpense validates the fields and delegates to Append. A zero
	// date defaults to today.
	AddExpense(ctx context.Context, description string, amount decimal.Decimal, date core.Date) (int64, error)

	Close() error
}

// newExpense is the shared validation gate for AddExpense.
func newExpense(description string, amount decimal.Decimal, date core.Date) (core.Expense, error) {
	if date.IsZero() {
		date = core.Today()
	}
	e := core.Expense{
		Date:        date,
		Description: description,
		Amount:      amount,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// applyUpdate merges the supplied fields into an existing expense.
func applyUpdate(e core.Expense, fields UpdateFields) core.Expense {
	if fields.Date != nil {
		e.Date = *fields.Date
	}
	if fields.Description != nil {
		e.Description = *fields.Description
	}
	if fields.Amount != nil {
		e.Amount = *fields.Amount
	}
	return e
}
