package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"registro/internal/amqp"
	"registro/internal/config"
	"registro/internal/core"
)

var (
	addDescription string
	addAmount      string
	addDate        string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an expense to the ledger",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Expense description")
	addCmd.Flags().StringVarP(&addAmount, "amount", "a", "", "Expense amount, e.g. 12.50")
	addCmd.Flags().StringVar(&addDate, "date", "", "Expense date (YYYY-MM-DD, default today)")
	addCmd.MarkFlagRequired("description")
	addCmd.MarkFlagRequired("amount")
}

func runAdd(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(addAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", addAmount, err)
	}

	var date core.Date
	if addDate != "" {
		date, err = core.ParseDate(addDate)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", addDate, err)
		}
	}

	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	id, err := store.AddExpense(ctx, addDescription, amount, date)
	if err != nil {
		return err
	}

	fmt.Printf("Added expense %d: %s $%s\n", id, addDescription, amount)

	publishAdded(ctx, cfg, id, date, addDescription, amount)
	return nil
}

// publishAdded emits the expense-added event when a broker is
// configured; failures only warn since the expense is already durable.
func publishAdded(ctx context.Context, cfg *config.Config, id int64, date core.Date, description string, amount decimal.Decimal) {
	if cfg.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Warn("Could not connect to AMQP broker, skipping event", "error", err)
		return
	}
	defer client.Close()

	if date.IsZero() {
		date = core.Today()
	}
	msg := amqp.NewExpenseAddedMessage(id, date.String(), description, amount.String(), amqp.SourceCLI)
	if err := client.PublishExpenseAdded(ctx, msg); err != nil {
		slog.Warn("Could not publish expense event", "error", err)
	}
}
