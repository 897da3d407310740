package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"yearcal/internal/cli"
	appLog "yearcal/internal/log"
)

var (
	version = ""
	commit  = ""
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli.SetVersion(version, commit)
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		appLog.Error("yearcal failed", err)
		os.Exit(1)
	}
}
