package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"registro/internal/core"
)

var summaryMonth int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the total of all expenses, optionally for one month",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVarP(&summaryMonth, "month", "m", 0, "Restrict to a month (1-12, any year)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	if summaryMonth != 0 && (summaryMonth < 1 || summaryMonth > 12) {
		return fmt.Errorf("invalid month %d: must be between 1 and 12", summaryMonth)
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	expenses, err := store.Scan(cmd.Context())
	if err != nil {
		return err
	}

	if summaryMonth == 0 {
		fmt.Printf("Total expenses: $%s\n", core.Total(expenses))
		return nil
	}

	fmt.Printf("Total expenses for %s: $%s\n",
		time.Month(summaryMonth), core.TotalForMonth(expenses, summaryMonth))
	return nil
}
