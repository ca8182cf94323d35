package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"registro/internal/core"
)

var csvHeader = []string{"ID", "Date", "Description", "Amount"}

// CSVStore keeps the ledger as a flat CSV file with an "ID, Date,
// Description, Amount" header. Inserts append a row; update and delete
// rewrite the file wholesale through a temp file plus rename.
type CSVStore struct {
	mu   sync.Mutex
	path string

	// lastID is the highest ID this handle has seen or assigned. It
	// never decreases, so deleting the maximum-ID row does not cause ID
	// reuse while the store is open.
	lastID int64
}

// OpenCSV opens the ledger file at path, creating it with a header row
// when absent.
func OpenCSV(path string) (*CSVStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	s := &CSVStore{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.writeAll(nil); err != nil {
			return nil, fmt.Errorf("initialize ledger file: %w", err)
		}
		return s, nil
	}

	rows, err := s.readAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	for _, e := range rows {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}
	return s, nil
}

func (s *CSVStore) Append(ctx context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID()
	if err != nil {
		return 0, err
	}
	e.ID = id

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record(e)); err != nil {
		return 0, fmt.Errorf("write expense row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush expense row: %w", err)
	}

	s.lastID = id

	slog.InfoContext(ctx, "Expense appended to ledger",
		"id", id,
		"date", e.Date.String(),
		"description", e.Description,
		"amount", e.Amount.String())

	return id, nil
}

// nextID is last row's ID + 1, falling back to the in-memory high-water
// mark so IDs stay monotonic after the last row was deleted. Caller
// holds the lock.
func (s *CSVStore) nextID() (int64, error) {
	last, err := s.lastRowID()
	if err != nil {
		return 0, err
	}
	if s.lastID > last {
		last = s.lastID
	}
	return last + 1, nil
}

// lastRowID returns the numeric ID of the last row, or 0 when the file
// is empty or its last ID field is not a valid integer.
func (s *CSVStore) lastRowID() (int64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var last []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read ledger file: %w", err)
		}
		if len(rec) > 0 {
			last = rec
		}
	}
	if len(last) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseInt(last[0], 10, 64)
	if err != nil {
		// Header row or corrupt ID field.
		return 0, nil
	}
	return id, nil
}

func (s *CSVStore) Scan(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *CSVStore) Update(ctx context.Context, id int64, fields UpdateFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll()
	if err != nil {
		return err
	}

	found := false
	for i, e := range rows {
		if e.ID == id {
			rows[i] = applyUpdate(e, fields)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("update expense %d: %w", id, ErrNotFound)
	}

	if err := s.writeAll(rows); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense updated in ledger", "id", id)
	return nil
}

func (s *CSVStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll()
	if err != nil {
		return err
	}

	kept := rows[:0]
	for _, e := range rows {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(rows) {
		return fmt.Errorf("delete expense %d: %w", id, ErrNotFound)
	}

	if err := s.writeAll(kept); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense deleted from ledger", "id", id)
	return nil
}

func (s *CSVStore) AddExpense(ctx context.Context, description string, amount decimal.Decimal, date core.Date) (int64, error) {
	e, err := newExpense(description, amount, date)
	if err != nil {
		return 0, err
	}
	return s.Append(ctx, e)
}

func (s *CSVStore) Close() error {
	return nil
}

// readAll parses every data row. The header row and blank lines are
// skipped; a malformed data row is a hard error so ledger corruption
// surfaces instead of silently dropping entries. Caller holds the lock.
func (s *CSVStore) readAll() ([]core.Expense, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []core.Expense
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger file: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == csvHeader[0] {
				continue
			}
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("ledger row %v: %w", rec, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// writeAll rewrites the whole file atomically: temp file in the same
// directory, then rename over the original. Caller holds the lock.
func (s *CSVStore) writeAll(rows []core.Expense) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.csv")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, e := range rows {
		if err := w.Write(record(e)); err != nil {
			tmp.Close()
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

func record(e core.Expense) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Date.String(),
		e.Description,
		e.Amount.String(),
	}
}

func parseRecord(rec []string) (core.Expense, error) {
	if len(rec) < 4 {
		return core.Expense{}, fmt.Errorf("expected 4 fields, got %d", len(rec))
	}
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse id: %w", err)
	}
	date, err := core.ParseDate(rec[1])
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q: %w", rec[1], err)
	}
	amount, err := decimal.NewFromString(rec[3])
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse amount %q: %w", rec[3], err)
	}
	return core.Expense{
		ID:          id,
		Date:        date,
		Description: rec[2],
		Amount:      amount,
	}, nil
}
