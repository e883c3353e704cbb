package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clubledger/reconcile/internal/cli"
	"github.com/clubledger/reconcile/internal/infrastructure/config"
)

func main() {
	flags, err := cli.ParseRepairFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadOrEnv_WithPath(flags.ConfigPath)
	if err := cli.RunRepair(ctx, cfg, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
