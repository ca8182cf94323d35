package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"registro/internal/core"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all expenses, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	expenses, err := store.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Println("No expenses found.")
		return nil
	}

	// Display is date-ordered; ties keep insertion order via ID.
	sort.SliceStable(expenses, func(i, j int) bool {
		if expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].ID < expenses[j].ID
		}
		return expenses[i].Date.Before(expenses[j].Date.Time)
	})

	printExpenses(expenses)
	return nil
}

func printExpenses(expenses []core.Expense) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT")
	for _, e := range expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t$%s\n", e.ID, e.Date, e.Description, e.Amount)
	}
	w.Flush()
}
