package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/clubledger/reconcile/internal/infrastructure/config"
)

// RunAutoMatch reconciles one event and prints the outcome.
func RunAutoMatch(ctx context.Context, cfg *config.Config, flags *AutoMatchFlags, out io.Writer) error {
	logger := LoggerFor(cfg, "automatch", flags.Verbose)

	app, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	opts, err := flags.Apply(app.Service.DefaultAutoMatchOptions())
	if err != nil {
		return err
	}

	PrintHeader(out, "automatch "+flags.EventID, opts.DryRun)
	report, err := app.Service.AutoMatchAll(ctx, flags.EventID, opts)
	if err != nil {
		return err
	}
	PrintAutoMatchSummary(out, report)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d links failed", report.Failed, report.Failed+report.Linked)
	}
	return nil
}

// RunRepair runs the integrity sweep and prints the outcome.
func RunRepair(ctx context.Context, cfg *config.Config, flags *RepairFlags, out io.Writer) error {
	logger := LoggerFor(cfg, "repair", flags.Verbose)

	app, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	PrintHeader(out, "repair", flags.DryRun)

	if !flags.ReconciledOnly {
		report, err := app.Service.RepairAll(ctx, flags.DryRun)
		if err != nil {
			return err
		}
		PrintRepairSummary(out, "Full repair", report)
		if report.Failed > 0 {
			return fmt.Errorf("%d repairs failed", report.Failed)
		}
	}

	report, err := app.Service.RepairReconciliationStatus(ctx, flags.DryRun)
	if err != nil {
		return err
	}
	PrintRepairSummary(out, "Reconciled flags", report)
	if report.Failed > 0 {
		return fmt.Errorf("%d repairs failed", report.Failed)
	}
	return nil
}
