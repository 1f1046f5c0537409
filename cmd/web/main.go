package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"aquatrend/internal/app"
)

func main() {
	// Optional .env for AQUA_* variables.
	_ = godotenv.Load()

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application exited with error", "error", err)
		os.Exit(1)
	}
}
