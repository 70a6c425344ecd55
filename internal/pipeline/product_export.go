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

// ProductExportPipeline selects eligible products, maps them to the fixed
// catalog feed schema and uploads the result as one file. Row mapping
// failures downgrade the product to skipped; an upload failure aborts the
// run with no partial credit.
type ProductExportPipeline struct {
	store   commerce.Store
	client  MarketplaceClient
	license license.Checker
	sink    synclog.Sink
	creds   models.SyncCredentials
	logger  *slog.Logger
	now     func() time.Time
}

func NewProductExport(store commerce.Store, client MarketplaceClient, lic license.Checker, sink synclog.Sink, creds models.SyncCredentials, logger *slog.Logger) *ProductExportPipeline {
	return &ProductExportPipeline{
		store:   store,
		client:  client,
		license: lic,
		sink:    sink,
		creds:   creds,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *ProductExportPipeline) Type() models.RunType {
	return models.RunProductExport
}

func (p *ProductExportPipeline) Run(ctx context.Context, trigger models.Trigger) (*models.SyncRunResult, error) {
	r := beginRun(models.RunProductExport, trigger, p.sink, p.logger)

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

	products, err := p.store.Products(ctx)
	if err != nil {
		return r.finish(ctx, fmt.Errorf("load products: %w", err), "")
	}

	var rows [][]string
	for _, prod := range products {
		if !feed.Eligible(prod, settings) {
			continue
		}
		r.result.Totals.Total++

		row, err := feed.BuildProductRow(prod, settings)
		if err != nil {
			r.result.Totals.Skipped++
			r.rowError(err.Error())
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		// An empty feed would wipe the marketplace catalog; never upload one.
		return r.finish(ctx, nil, "no eligible products, nothing uploaded")
	}

	data, err := feed.WriteCSV(feed.ProductColumns, rows)
	if err != nil {
		return r.finish(ctx, fmt.Errorf("serialize catalog feed: %w", err), "")
	}

	filename := feed.ProductFilename(p.now())
	if err := p.client.UploadCSV(ctx, p.creds, nalda.FeedProducts, filename, data); err != nil {
		// No partial credit: nothing counts as exported on a failed upload.
		r.result.Totals.Succeeded = 0
		return r.finish(ctx, &TransportError{Op: "catalog feed upload", Err: err}, "")
	}

	r.result.Totals.Succeeded = len(rows)
	metrics.RowsProcessed.WithLabelValues(string(models.RunProductExport), "exported").Add(float64(len(rows)))

	return r.finish(ctx, nil, fmt.Sprintf("exported %d of %d products", len(rows), r.result.Totals.Total))
}
