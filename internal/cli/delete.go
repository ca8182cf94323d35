package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"registro/internal/ledger"
)

var deleteID int64

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an expense from the ledger",
	Args:  cobra.NoArgs,
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().Int64VarP(&deleteID, "id", "i", 0, "Expense ID")
	deleteCmd.MarkFlagRequired("id")
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), deleteID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("expense %d not found", deleteID)
		}
		return err
	}

	fmt.Printf("Deleted expense %d\n", deleteID)
	return nil
}
