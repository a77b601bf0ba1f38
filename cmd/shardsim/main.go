package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"shardsim/internal/cli"
)

func main() {
	// Ctrl+C / SIGTERM cancels in-flight simulated loads.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
