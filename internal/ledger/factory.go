package ledger

import "fmt"

// Backend names accepted by Open.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config selects and configures a ledger backend.
type Config struct {
	Backend    string
	CSVPath    string
	SQLitePath string
}

// Open creates the configured ledger backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendCSV:
		return OpenCSV(cfg.CSVPath)
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Backend)
	}
}
