package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sellbridge/nalda-sync/internal/commerce"
	"github.com/sellbridge/nalda-sync/internal/feed"
	"github.com/sellbridge/nalda-sync/internal/license"
	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/nalda"
	"github.com/sellbridge/nalda-sync/internal/synclog"
	"github.com/sellbridge/nalda-sync/pkg/metrics"
)

// StatusExportPipeline reports local order status changes back to Nalda.
// Inclusion is edge-triggered: its listener flips a per-order dirty bit on
// every watched status transition, and a run drains the dirty set into one
// CSV upload. The bit is cleared only after a successful upload so a failed
// run retries the same orders on the next tick.
type StatusExportPipeline struct {
	store   commerce.Store
	client  MarketplaceClient
	license license.Checker
	sink    synclog.Sink
	creds   models.SyncCredentials
	logger  *slog.Logger
	now     func() time.Time
}

func NewStatusExport(store commerce.Store, client MarketplaceClient, lic license.Checker, sink synclog.Sink, creds models.SyncCredentials, logger *slog.Logger) *StatusExportPipeline {
	return &StatusExportPipeline{
		store:   store,
		client:  client,
		license: lic,
		sink:    sink,
		creds:   creds,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *StatusExportPipeline) Type() models.RunType {
	return models.RunStatusExport
}

// OnTransition implements commerce.OrderStatusListener. It marks
// marketplace-owned orders dirty whenever their status changes.
func (p *StatusExportPipeline) OnTransition(ctx context.Context, order *models.LocalOrder, oldStatus, newStatus models.LocalOrderStatus) {
	if !order.IsMarketplaceOrder || oldStatus == newStatus {
		return
	}

	order.SetNeedsStatusExport(true)
	if err := p.store.SaveOrder(ctx, order); err != nil {
		p.logger.Error("Failed to persist status export flag",
			"order_id", order.ID, "error", err)
	}
}

func (p *StatusExportPipeline) Run(ctx context.Context, trigger models.Trigger) (*models.SyncRunResult, error) {
	r := beginRun(models.RunStatusExport, trigger, p.sink, p.logger)

	if !p.license.Valid(ctx) {
		return r.finish(ctx, ErrUnauthorized, "")
	}
	if !p.creds.TransferComplete() {
		return r.finish(ctx, fmt.Errorf("%w: transfer account", ErrMissingCredentials), "")
	}

	settings, err := p.store.Settings(ctx)
	if err != nil {
		return r.finish(ctx, fmt.Errorf("load shop settings: %w", err), "")
	}

	orders, err := p.store.StatusExportCandidates(ctx)
	if err != nil {
		return r.finish(ctx, fmt.Errorf("select dirty orders: %w", err), "")
	}

	var rows [][]string
	var included []*models.LocalOrder
	for _, order := range orders {
		r.result.Totals.Total++

		orderRows, err := feed.BuildStatusRows(order, settings.DeliveryDays)
		if err != nil {
			r.result.Totals.Skipped++
			r.rowError(err.Error())
			continue
		}

		// Orders whose lines all lack a GTIN produce no rows; they are still
		// marked exported, there is nothing Nalda could accept for them.
		rows = append(rows, orderRows...)
		included = append(included, order)
	}

	if len(included) == 0 {
		return r.finish(ctx, nil, "no order status changes to export")
	}

	if len(rows) > 0 {
		data, err := feed.WriteCSV(feed.StatusColumns, rows)
		if err != nil {
			return r.finish(ctx, fmt.Errorf("serialize status feed: %w", err), "")
		}

		filename := feed.StatusFilename(p.now())
		if err := p.client.UploadCSV(ctx, p.creds, nalda.FeedOrders, filename, data); err != nil {
			// Nothing is marked exported; everything stays dirty for retry.
			return r.finish(ctx, &TransportError{Op: "status feed upload", Err: err}, "")
		}
	}

	now := p.now()
	for _, order := range included {
		order.SetNeedsStatusExport(false)
		order.LastStatusExportAt = &now
		if err := p.store.SaveOrder(ctx, order); err != nil {
			r.rowError(fmt.Sprintf("order %d exported but flag not cleared: %v", order.ID, err))
			continue
		}
		r.result.Totals.Succeeded++
	}

	metrics.RowsProcessed.WithLabelValues(string(models.RunStatusExport), "exported").Add(float64(len(rows)))

	msg := fmt.Sprintf("exported status of %d orders (%d feed rows)", r.result.Totals.Succeeded, len(rows))
	return r.finish(ctx, nil, msg)
}
