package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"LEDGER_BACKEND", "LEDGER_CSV_PATH", "SQLITE_DB_PATH",
		"SYNC_SENDER", "SYNC_SUBJECT_MARKER", "SYNC_LABEL", "SYNC_DESCRIPTION",
		"SYNC_INTERVAL", "SYNC_POLL_INTERVAL", "SYNC_FETCH_CONCURRENCY",
		"AMQP_URL", "AMQP_EXCHANGE", "AMQP_QUEUE",
		"GOOGLE_OAUTH_CLIENT_FILE", "GOOGLE_OAUTH_TOKEN_FILE",
		"GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_TOKEN_JSON",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.LedgerBackend != "csv" {
		t.Errorf("LedgerBackend = %q, want csv", cfg.LedgerBackend)
	}
	if cfg.CSVPath != "./data/registro.csv" {
		t.Errorf("CSVPath = %q", cfg.CSVPath)
	}
	if cfg.SyncSender != "automated@airbnb.com" {
		t.Errorf("SyncSender = %q", cfg.SyncSender)
	}
	if cfg.SyncSubjectMarker != "Reservation confirmed for" {
		t.Errorf("SyncSubjectMarker = %q", cfg.SyncSubjectMarker)
	}
	if cfg.SyncLabel != "EXPENSE_SYNCED" {
		t.Errorf("SyncLabel = %q", cfg.SyncLabel)
	}
	if cfg.SyncInterval != 24*time.Hour {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.FetchConcurrency != 4 {
		t.Errorf("FetchConcurrency = %d", cfg.FetchConcurrency)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("AMQPURL = %q, want empty (events disabled)", cfg.AMQPURL)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", "/tmp/x.db")
	t.Setenv("SYNC_INTERVAL", "2h")
	t.Setenv("SYNC_FETCH_CONCURRENCY", "8")

	cfg := Load()

	if cfg.LedgerBackend != "sqlite" {
		t.Errorf("LedgerBackend = %q", cfg.LedgerBackend)
	}
	if cfg.SyncInterval != 2*time.Hour {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.FetchConcurrency != 8 {
		t.Errorf("FetchConcurrency = %d", cfg.FetchConcurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_UnparsableValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYNC_INTERVAL", "not a duration")
	t.Setenv("SYNC_FETCH_CONCURRENCY", "many")

	cfg := Load()

	if cfg.SyncInterval != 24*time.Hour {
		t.Errorf("SyncInterval = %v, want default", cfg.SyncInterval)
	}
	if cfg.FetchConcurrency != 4 {
		t.Errorf("FetchConcurrency = %d, want default", cfg.FetchConcurrency)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			"unknown backend",
			func(c *Config) { c.LedgerBackend = "mongo" },
			"invalid ledger backend",
		},
		{
			"empty csv path",
			func(c *Config) { c.CSVPath = "" },
			"CSV ledger path",
		},
		{
			"empty label",
			func(c *Config) { c.SyncLabel = "" },
			"sync label",
		},
		{
			"interval too short",
			func(c *Config) { c.SyncInterval = time.Second },
			"sync interval",
		},
		{
			"zero concurrency",
			func(c *Config) { c.FetchConcurrency = 0 },
			"fetch concurrency",
		},
		{
			"bad amqp scheme",
			func(c *Config) { c.AMQPURL = "http://localhost:5672" },
			"AMQP URL scheme",
		},
		{
			"missing oauth client file",
			func(c *Config) { c.GoogleOAuthClientFile = "/nonexistent/client.json" },
			"client file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.LedgerBackend = "mongo"
	cfg.SyncLabel = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ledger backend") || !strings.Contains(msg, "sync label") {
		t.Errorf("expected both problems reported, got %q", msg)
	}
}
