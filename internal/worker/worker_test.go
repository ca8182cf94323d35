package worker

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"registro/internal/ingest"
	"registro/internal/ledger"
	"registro/internal/mail"
)

// countingSource matches nothing; it only records search calls.
type countingSource struct {
	searches atomic.Int64
}

func (s *countingSource) Search(ctx context.Context, query string) ([]string, error) {
	s.searches.Add(1)
	return nil, nil
}

func (s *countingSource) Fetch(ctx context.Context, id string) (mail.Message, error) {
	return mail.Message{}, nil
}

func (s *countingSource) EnsureLabel(ctx context.Context, name string) (string, error) {
	return "L1", nil
}

func (s *countingSource) ApplyLabel(ctx context.Context, ids []string, labelID string) error {
	return nil
}

func newTestRunner(t *testing.T, src mail.Source, cfg Config) *Runner {
	t.Helper()
	store, err := ledger.OpenCSV(filepath.Join(t.TempDir(), "ledger.csv"))
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewRunner(ingest.NewSyncer(src, store, nil, ingest.DefaultConfig()), cfg)
}

func TestRunner_RunsOnceAtStartup(t *testing.T) {
	src := &countingSource{}
	r := newTestRunner(t, src, Config{Interval: time.Hour, PollInterval: time.Hour})

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for src.searches.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no run within deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := src.searches.Load(); got != 1 {
		t.Errorf("searches = %d, want 1", got)
	}
}

func TestRunner_RunsAgainWhenIntervalElapsed(t *testing.T) {
	src := &countingSource{}
	r := newTestRunner(t, src, Config{Interval: time.Millisecond, PollInterval: 5 * time.Millisecond})

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for src.searches.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs within deadline", src.searches.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRunner_StartTwice(t *testing.T) {
	r := newTestRunner(t, &countingSource{}, Config{Interval: time.Hour, PollInterval: time.Hour})

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(ctx)

	if err := r.Start(ctx); err == nil {
		t.Error("second Start should fail while running")
	}
	if !r.IsRunning() {
		t.Error("runner should report running")
	}
}

func TestRunner_StopWhenNotRunning(t *testing.T) {
	r := newTestRunner(t, &countingSource{}, Config{})

	if err := r.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle runner: %v", err)
	}
}

func TestRunner_StopWaits(t *testing.T) {
	r := newTestRunner(t, &countingSource{}, Config{Interval: time.Hour, PollInterval: time.Hour})

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.IsRunning() {
		t.Error("runner should report stopped")
	}
}
