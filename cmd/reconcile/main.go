// Command reconcile scans the commerce backend for orders with broken
// marketplace linkage and optionally repairs them. It is deliberately a
// separate binary: the repair must never run implicitly inside a sync
// pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sellbridge/nalda-sync/internal/commerce"
	"github.com/sellbridge/nalda-sync/internal/config"
	"github.com/sellbridge/nalda-sync/internal/reconcile"
	"github.com/sellbridge/nalda-sync/pkg/infra"
)

func main() {
	apply := flag.Bool("apply", false, "repair the defects instead of only reporting them")
	flag.Parse()

	cfg := config.Load()
	logger := infra.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	defer infra.CloseLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := commerceAdapter()
	if store == nil {
		logger.Error("FATAL: no commerce backend adapter configured")
		os.Exit(1)
	}

	job := reconcile.NewJob(store, logger)

	var (
		report *reconcile.Report
		err    error
	)
	if *apply {
		report, err = job.Apply(ctx)
	} else {
		report, err = job.DryRun(ctx)
	}
	if err != nil {
		logger.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	printReport(report)
}

func printReport(r *reconcile.Report) {
	mode := "DRY RUN"
	if r.Applied {
		mode = "APPLIED"
	}

	fmt.Printf("Reconciliation report (%s): %d defective orders\n", mode, len(r.Findings))
	for _, f := range r.Findings {
		fmt.Printf("  order %d (marketplace %s): %s\n", f.OrderID, f.MarketplaceOrderID, f.Problem)
	}
	if len(r.Findings) > 0 && !r.Applied {
		fmt.Println("Run again with -apply to repair.")
	}
}

// commerceAdapter returns the commerce backend binding, replaced per
// platform distribution like in the daemon.
func commerceAdapter() commerce.Store {
	return nil
}
