package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/playlister/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	app := newApp(NewRunner(RunnerOpts{Logger: logger}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "playlister",
		Usage:    "Share, search and maintain playlists over a JSON API",
		Version:  "0.1.0",
		Commands: r.register(),
	}
}
