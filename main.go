package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/midnight-magnolia/magnolia/internal/cli"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx, version, commit, date); err != nil {
		stop()
		os.Exit(1)
	}
}
