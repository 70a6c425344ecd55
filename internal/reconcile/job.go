// Package reconcile repairs orders left in a half-linked state: a
// marketplace order ID without the ownership flag. The sync pipelines
// refuse to touch these; this job is the only writer, and it is only ever
// invoked by an operator.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sellbridge/nalda-sync/internal/commerce"
)

// Finding is one defective order in a report.
type Finding struct {
	OrderID            int64
	MarketplaceOrderID string
	Problem            string
}

// Report is the outcome of a dry-run or apply pass.
type Report struct {
	Findings []Finding
	Applied  bool
}

// Job scans for linkage defects and optionally repairs them.
type Job struct {
	store  commerce.Store
	logger *slog.Logger
}

func NewJob(store commerce.Store, logger *slog.Logger) *Job {
	return &Job{store: store, logger: logger}
}

// DryRun reports every order that would be repaired without writing
// anything.
func (j *Job) DryRun(ctx context.Context) (*Report, error) {
	return j.run(ctx, false)
}

// Apply repairs each defective order: the ownership flag is set and the
// status export dirty bit initialized to clean, with an order note
// documenting the repair.
func (j *Job) Apply(ctx context.Context) (*Report, error) {
	return j.run(ctx, true)
}

func (j *Job) run(ctx context.Context, apply bool) (*Report, error) {
	orders, err := j.store.OrdersWithLinkage(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan linked orders: %w", err)
	}

	report := &Report{Applied: apply}
	for _, order := range orders {
		if order.IsMarketplaceOrder {
			continue
		}

		report.Findings = append(report.Findings, Finding{
			OrderID:            order.ID,
			MarketplaceOrderID: order.MarketplaceOrderID,
			Problem:            "marketplace order id present but ownership flag missing",
		})

		if !apply {
			continue
		}

		order.IsMarketplaceOrder = true
		if order.NeedsStatusExport == nil {
			order.SetNeedsStatusExport(false)
		}
		if err := j.store.SaveOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("repair order %d: %w", order.ID, err)
		}
		note := fmt.Sprintf("Reconciliation: restored marketplace ownership for order %s", order.MarketplaceOrderID)
		if err := j.store.AppendOrderNote(ctx, order.ID, note); err != nil {
			return nil, fmt.Errorf("note order %d: %w", order.ID, err)
		}

		j.logger.Info("Repaired marketplace linkage",
			"order_id", order.ID,
			"marketplace_order_id", order.MarketplaceOrderID,
		)
	}

	return report, nil
}
