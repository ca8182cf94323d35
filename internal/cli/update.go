package cli

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"registro/internal/core"
	"registro/internal/ledger"
)

var (
	updateID          int64
	updateDescription string
	updateAmount      string
	updateDate        string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update fields of an existing expense",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().Int64VarP(&updateID, "id", "i", 0, "Expense ID")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "New description")
	updateCmd.Flags().StringVarP(&updateAmount, "amount", "a", "", "New amount")
	updateCmd.Flags().StringVar(&updateDate, "date", "", "New date (YYYY-MM-DD)")
	updateCmd.MarkFlagRequired("id")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	var fields ledger.UpdateFields

	if cmd.Flags().Changed("description") {
		fields.Description = &updateDescription
	}
	if cmd.Flags().Changed("amount") {
		amount, err := decimal.NewFromString(updateAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", updateAmount, err)
		}
		fields.Amount = &amount
	}
	if cmd.Flags().Changed("date") {
		date, err := core.ParseDate(updateDate)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", updateDate, err)
		}
		fields.Date = &date
	}

	if fields.IsEmpty() {
		return errors.New("nothing to update: pass at least one of --description, --amount, --date")
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Update(cmd.Context(), updateID, fields); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("expense %d not found", updateID)
		}
		return err
	}

	fmt.Printf("Updated expense %d\n", updateID)
	return nil
}
