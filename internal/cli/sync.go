package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"registro/internal/amqp"
	"registro/internal/ingest"
	"registro/internal/mail/gmail"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull new expenses out of booking-confirmation emails once",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	source, err := gmail.NewFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("connect to Gmail: %w", err)
	}

	var events ingest.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("Could not connect to AMQP broker, events disabled", "error", err)
		} else {
			defer client.Close()
			events = client
		}
	}

	syncer := ingest.NewSyncer(source, store, events, ingest.Config{
		Sender:           cfg.SyncSender,
		SubjectMarker:    cfg.SyncSubjectMarker,
		DescriptionLabel: cfg.SyncDescription,
		SyncLabel:        cfg.SyncLabel,
		FetchConcurrency: cfg.FetchConcurrency,
	})

	summary, err := syncer.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Sync complete: %d candidates, %d added, %d skipped\n",
		summary.Candidates, summary.Added, summary.Skipped)
	return nil
}
