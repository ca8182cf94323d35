// Package cli implements the registro command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"registro/internal/config"
	"registro/internal/ledger"
)

var rootCmd = &cobra.Command{
	Use:   "registro",
	Short: "registro – a flat-file expense ledger",
	Long: `registro keeps an append-friendly expense table and can pull new
expenses out of booking-confirmation emails.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(syncCmd)
}

// openStore loads configuration and opens the configured ledger backend.
func openStore() (ledger.Store, *config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	store, err := ledger.Open(ledger.Config{
		Backend:    cfg.LedgerBackend,
		CSVPath:    cfg.CSVPath,
		SQLitePath: cfg.SQLiteDBPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, cfg, nil
}
