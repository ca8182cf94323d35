package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"registro/internal/core"
)

// SQLiteStore is the transactional ledger backend. AUTOINCREMENT keeps
// IDs strictly greater than every ID ever assigned, matching the CSV
// backend's high-water-mark behavior.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the SQLite ledger at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e core.Expense) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount) VALUES (?, ?, ?)`,
		e.Date.String(), e.Description, e.Amount.String())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"date", e.Date.String(),
		"description", e.Description,
		"amount", e.Amount.String())

	return id, nil
}

func (s *SQLiteStore) Scan(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, description, amount FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			id           int64
			date         string
			description  string
			amountString string
		)
		if err := rows.Scan(&id, &date, &description, &amountString); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: parse date %q: %w", id, date, err)
		}
		amount, err := decimal.NewFromString(amountString)
		if err != nil {
			return nil, fmt.Errorf("expense %d: parse amount %q: %w", id, amountString, err)
		}
		out = append(out, core.Expense{
			ID:          id,
			Date:        d,
			Description: description,
			Amount:      amount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, fields UpdateFields) error {
	current, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	updated := applyUpdate(current, fields)

	_, err = s.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, description = ?, amount = ? WHERE id = ?`,
		updated.Date.String(), updated.Description, updated.Amount.String(), id)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Expense updated in SQLite", "id", id)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete expense %d: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

func (s *SQLiteStore) AddExpense(ctx context.Context, description string, amount decimal.Decimal, date core.Date) (int64, error) {
	e, err := newExpense(description, amount, date)
	if err != nil {
		return 0, err
	}
	return s.Append(ctx, e)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, id int64) (core.Expense, error) {
	var (
		date         string
		description  string
		amountString string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT date, description, amount FROM expenses WHERE id = ?`, id).
		Scan(&date, &description, &amountString)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: parse date %q: %w", id, date, err)
	}
	amount, err := decimal.NewFromString(amountString)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: parse amount %q: %w", id, amountString, err)
	}
	return core.Expense{ID: id, Date: d, Description: description, Amount: amount}, nil
}
