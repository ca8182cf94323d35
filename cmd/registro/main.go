package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"registro/internal/cli"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cli.Execute()
}
