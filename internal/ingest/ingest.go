// Package ingest drives the mailbox-to-ledger pipeline: search for
// candidate booking confirmations, extract their facts, append them to
// the ledger, and mark the processed messages with the sync label in a
// single batch so re-running never double-books.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"registro/internal/amqp"
	"registro/internal/extract"
	"registro/internal/ledger"
	"registro/internal/log"
	"registro/internal/mail"
)

// Config holds the ingestion filter and dedup settings.
type Config struct {
	// Sender is the address confirmation messages come from.
	Sender string

	// SubjectMarker is the phrase confirmation subjects start with.
	SubjectMarker string

	// DescriptionLabel replaces SubjectMarker when deriving the ledger
	// description.
	DescriptionLabel string

	// SyncLabel is the mailbox label marking already-ingested messages.
	SyncLabel string

	// FetchConcurrency bounds parallel fetch+extract. Extraction is pure
	// per message; only ledger appends are serialized.
	FetchConcurrency int
}

// DefaultConfig returns the provider defaults.
func DefaultConfig() Config {
	return Config{
		Sender:           "automated@airbnb.com",
		SubjectMarker:    "Reservation confirmed for",
		DescriptionLabel: "rent",
		SyncLabel:        "EXPENSE_SYNCED",
		FetchConcurrency: 4,
	}
}

// Publisher emits expense-added events. A nil Publisher disables events.
type Publisher interface {
	PublishExpenseAdded(ctx context.Context, msg *amqp.ExpenseAddedMessage) error
}

// Summary is the observable outcome of one pipeline run.
type Summary struct {
	// Candidates is the number of messages the filter query matched.
	Candidates int

	// Added is the number of expenses appended to the ledger.
	Added int

	// Skipped counts candidates left unmarked (not extractable, parse
	// failure, or append failure); they stay candidates for the next run.
	Skipped int

	// Marked reports whether the sync label batch call succeeded.
	Marked bool
}

// Syncer ties the mailbox, the extractor and the ledger together. All
// collaborators are injected so test doubles can stand in for the
// mailbox transport.
type Syncer struct {
	source    mail.Source
	store     ledger.Store
	events    Publisher
	extractor *extract.Extractor
	cfg       Config
}

// NewSyncer creates a pipeline over the given mailbox and ledger.
// events may be nil.
func NewSyncer(source mail.Source, store ledger.Store, events Publisher, cfg Config) *Syncer {
	return &Syncer{
		source:    source,
		store:     store,
		events:    events,
		extractor: extract.New(cfg.SubjectMarker, cfg.DescriptionLabel),
		cfg:       cfg,
	}
}

// Query builds the mailbox filter: unread confirmations from the known
// sender, excluding messages already carrying the sync label.
func (s *Syncer) Query() string {
	return fmt.Sprintf("from:%s subject:%q is:unread -label:%s",
		s.cfg.Sender, s.cfg.SubjectMarker, s.cfg.SyncLabel)
}

// outcome is the per-message result of the fetch+extract stage.
type outcome struct {
	messageID string
	result    *extract.Result
	skip      error
}

// Run executes one pipeline pass. Per-message extraction and append
// failures are contained (the message is skipped and stays a candidate);
// label resolution and transport failures abort the run.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	query := s.Query()
	slog.InfoContext(ctx, "Searching mailbox for expenses to sync",
		log.FieldComponent, log.ComponentIngest,
		log.FieldQuery, query)

	ids, err := s.source.Search(ctx, query)
	if err != nil {
		return Summary{}, fmt.Errorf("search mailbox: %w", err)
	}
	summary := Summary{Candidates: len(ids)}
	if len(ids) == 0 {
		slog.InfoContext(ctx, "No messages found for expense sync")
		return summary, nil
	}

	// Fail-closed: never ingest without a working dedup marker.
	labelID, err := s.source.EnsureLabel(ctx, s.cfg.SyncLabel)
	if err != nil {
		return summary, err
	}

	outcomes, err := s.fetchAndExtract(ctx, ids)
	if err != nil {
		return summary, err
	}

	// Appends are serialized: ID assignment reads the current maximum
	// before writing, so the ledger permits only one writer.
	var toMark []string
	for _, o := range outcomes {
		if o.skip != nil {
			s.logSkip(ctx, o)
			summary.Skipped++
			continue
		}

		id, err := s.store.AddExpense(ctx, o.result.Description, o.result.Amount, o.result.CheckinDate)
		if err != nil {
			// One bad message must not block ingestion of the rest. Left
			// unmarked, it is retried on the next run.
			slog.ErrorContext(ctx, "Failed to append expense, leaving message unmarked",
				log.FieldMessageID, o.messageID,
				log.FieldError, err)
			summary.Skipped++
			continue
		}
		summary.Added++
		toMark = append(toMark, o.messageID)

		slog.InfoContext(ctx, "Added expense from message",
			log.FieldMessageID, o.messageID,
			log.FieldExpenseID, id,
			log.FieldDate, o.result.CheckinDate.String(),
			log.FieldExpenseDesc, o.result.Description,
			log.FieldAmount, o.result.Amount.String())

		s.publishAdded(ctx, id, o)
	}

	if len(toMark) > 0 {
		if err := s.source.ApplyLabel(ctx, toMark, labelID); err != nil {
			// The appended expenses stay recorded; their messages stay
			// unmarked and may be re-ingested on a future run. Surfacing
			// the error lets the operator reconcile the duplicate window.
			return summary, fmt.Errorf("mark %d messages as synced: %w", len(toMark), err)
		}
		summary.Marked = true
	}

	slog.InfoContext(ctx, "Expense sync run finished",
		log.FieldCandidates, summary.Candidates,
		log.FieldAdded, summary.Added,
		log.FieldSkipped, summary.Skipped)

	return summary, nil
}

// fetchAndExtract fans message fetch+extract out over a bounded group.
// Extraction failures are recorded per message; a fetch (transport)
// failure cancels the group and aborts the run.
func (s *Syncer) fetchAndExtract(ctx context.Context, ids []string) ([]outcome, error) {
	outcomes := make([]outcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			msg, err := s.source.Fetch(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch message %s: %w", id, err)
			}
			res, err := s.extractor.Extract(msg)
			if err != nil {
				outcomes[i] = outcome{messageID: id, skip: err}
				return nil
			}
			outcomes[i] = outcome{messageID: id, result: &res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *Syncer) logSkip(ctx context.Context, o outcome) {
	if errors.Is(o.skip, extract.ErrNotExtractable) {
		slog.InfoContext(ctx, "Message not extractable, skipping",
			log.FieldMessageID, o.messageID, "reason", o.skip)
		return
	}
	slog.WarnContext(ctx, "Message payload malformed, skipping",
		log.FieldMessageID, o.messageID, log.FieldError, o.skip)
}

func (s *Syncer) publishAdded(ctx context.Context, id int64, o outcome) {
	if s.events == nil {
		return
	}
	msg := amqp.NewExpenseAddedMessage(id,
		o.result.CheckinDate.String(),
		o.result.Description,
		o.result.Amount.String(),
		amqp.SourceMail)
	if err := s.events.PublishExpenseAdded(ctx, msg); err != nil {
		// Events are best-effort; the expense is already durable.
		slog.ErrorContext(ctx, "Failed to publish expense added event",
			log.FieldExpenseID, id, log.FieldError, err)
	}
}
