// Package worker schedules periodic ingestion runs.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"registro/internal/ingest"
	"registro/internal/log"
)

// Config holds the scheduling knobs of the sync runner.
type Config struct {
	// Interval is the minimum time between two ingestion runs (default: 24h).
	Interval time.Duration

	// PollInterval is how often the runner checks whether Interval has
	// elapsed (default: 1m). Kept short so a laptop waking from sleep
	// picks up an overdue run quickly.
	PollInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     24 * time.Hour,
		PollInterval: time.Minute,
	}
}

// Runner runs the ingestion pipeline once at startup and then whenever
// Interval has elapsed since the last run.
type Runner struct {
	syncer *ingest.Syncer
	config Config

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	lastRun time.Time
}

// NewRunner creates a runner over the given pipeline.
func NewRunner(syncer *ingest.Syncer, config Config) *Runner {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	return &Runner{
		syncer: syncer,
		config: config,
	}
}

// Start begins the scheduling loop. Returns an error if already running.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("sync runner is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Sync runner started",
		"interval", r.config.Interval,
		"poll_interval", r.config.PollInterval)

	return nil
}

// Stop gracefully stops the runner and waits for completion.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		slog.InfoContext(ctx, "Sync runner stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync runner stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	return nil
}

// IsRunning reports whether the runner is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on startup.
	r.runOnce(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(r.lastRun) >= r.config.Interval {
				r.runOnce(ctx)
			}
		}
	}
}

// runOnce executes a single pipeline pass. Run errors are logged, not
// fatal: the next due tick retries.
func (r *Runner) runOnce(ctx context.Context) {
	r.lastRun = time.Now()

	summary, err := r.syncer.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled sync run failed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldError, err)
		return
	}

	slog.InfoContext(ctx, "Scheduled sync run completed",
		log.FieldComponent, log.ComponentWorker,
		log.FieldCandidates, summary.Candidates,
		log.FieldAdded, summary.Added,
		log.FieldSkipped, summary.Skipped)
}
