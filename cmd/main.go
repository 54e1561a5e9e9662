package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/glx/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	// Credentials may live in a .env file next to the config.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "glx",
		Usage:    "Export and download every GitLab project visible to a token",
		Version:  "0.1.0",
		Flags:    runFlags(),
		Action:   runner.Export,
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		logger.Fatalf("application error: %v", err)
	}
}
