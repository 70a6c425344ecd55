package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellbridge/nalda-sync/internal/commerce"
	"github.com/sellbridge/nalda-sync/internal/license"
	"github.com/sellbridge/nalda-sync/internal/match"
	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/synclog"
	"github.com/sellbridge/nalda-sync/pkg/metrics"
)

// naldaBilling is the fixed billing identity on every imported order. Nalda
// settles with the merchant directly, so the buyer never appears on the
// invoice side.
var naldaBilling = models.Address{
	Name:    "Nalda Marketplace",
	Company: "Nalda AG",
	Street:  "Europaallee 41",
	Zip:     "8004",
	City:    "Zürich",
	Country: "CH",
	Email:   "merchants@nalda.com",
}

// PaymentMethodNalda is the payment method code stamped on orders whose
// payout Nalda has settled.
const PaymentMethodNalda = "nalda_payout"

type importOutcome int

const (
	outcomeCreated importOutcome = iota
	outcomeUpdated
	outcomeUnchanged
)

// OrderImportPipeline fetches marketplace order lines for a bounded date
// window, groups them into orders and creates or updates local orders.
// Re-running against an unchanged upstream set creates nothing new.
type OrderImportPipeline struct {
	store       commerce.Store
	client      MarketplaceClient
	matcher     *match.Matcher
	license     license.Checker
	sink        synclog.Sink
	creds       models.SyncCredentials
	importRange models.ImportRange
	logger      *slog.Logger
	now         func() time.Time
}

func NewOrderImport(store commerce.Store, client MarketplaceClient, matcher *match.Matcher, lic license.Checker, sink synclog.Sink, creds models.SyncCredentials, importRange models.ImportRange, logger *slog.Logger) *OrderImportPipeline {
	return &OrderImportPipeline{
		store:       store,
		client:      client,
		matcher:     matcher,
		license:     lic,
		sink:        sink,
		creds:       creds,
		importRange: importRange,
		logger:      logger,
		now:         time.Now,
	}
}

func (p *OrderImportPipeline) Type() models.RunType {
	return models.RunOrderImport
}

func (p *OrderImportPipeline) Run(ctx context.Context, trigger models.Trigger) (*models.SyncRunResult, error) {
	r := beginRun(models.RunOrderImport, trigger, p.sink, p.logger)

	if !p.license.Valid(ctx) {
		return r.finish(ctx, ErrUnauthorized, "")
	}
	if !p.creds.APIComplete() {
		return r.finish(ctx, fmt.Errorf("%w: api key", ErrMissingCredentials), "")
	}

	from, to := p.importRange.Window(p.now())
	lines, err := p.client.FetchOrderLines(ctx, p.creds.APIKey, from, to)
	if err != nil {
		return r.finish(ctx, &TransportError{Op: "order fetch", Err: err}, "")
	}

	groups := groupByOrderID(lines)
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r.result.Totals.Total++

		outcome, err := p.importOrder(ctx, id, groups[id])
		if err != nil {
			r.rowError(fmt.Sprintf("order %s: %v", id, err))
			continue
		}

		switch outcome {
		case outcomeCreated:
			r.result.Totals.Succeeded++
			metrics.RowsProcessed.WithLabelValues(string(models.RunOrderImport), "created").Inc()
		case outcomeUpdated:
			r.result.Totals.Updated++
			metrics.RowsProcessed.WithLabelValues(string(models.RunOrderImport), "updated").Inc()
		case outcomeUnchanged:
			r.result.Totals.Skipped++
			metrics.RowsProcessed.WithLabelValues(string(models.RunOrderImport), "unchanged").Inc()
		}
	}

	msg := fmt.Sprintf("processed %d marketplace orders (%d created, %d updated, %d unchanged)",
		r.result.Totals.Total, r.result.Totals.Succeeded, r.result.Totals.Updated, r.result.Totals.Skipped)
	return r.finish(ctx, nil, msg)
}

// importOrder handles one group of lines sharing a marketplace order ID.
// Errors are row-scoped: the caller counts them and keeps going.
func (p *OrderImportPipeline) importOrder(ctx context.Context, id string, lines []models.NaldaOrderLine) (importOutcome, error) {
	existing, err := p.matcher.ResolveLocalOrder(ctx, id)
	if err != nil {
		return 0, err
	}

	if existing != nil {
		if !existing.IsMarketplaceOrder {
			// Never auto-repaired here; the reconciliation job owns this.
			return 0, &IntegrityError{MarketplaceOrderID: id, Reason: "order carries the marketplace id but not the ownership flag"}
		}
		return p.updateExisting(ctx, existing, lines)
	}

	return p.createOrder(ctx, id, lines)
}

// updateExisting applies update-only semantics: the only thing the
// marketplace may change on an already imported order is its payout status.
func (p *OrderImportPipeline) updateExisting(ctx context.Context, order *models.LocalOrder, lines []models.NaldaOrderLine) (importOutcome, error) {
	incoming := lines[0].PayoutStatus
	previous := order.PayoutStatus

	if incoming == previous {
		return outcomeUnchanged, nil
	}

	order.PayoutStatus = incoming
	now := p.now()

	switch {
	case incoming == models.PayoutPaidOut:
		order.PaymentMethod = PaymentMethodNalda
		order.PaidAt = &now
	case previous == models.PayoutPaidOut:
		// Payout regressed after the fact. Rare path, kept as the upstream
		// behaves; see DESIGN.md for the open policy question.
		order.PaymentMethod = ""
		order.PaidAt = nil
	}

	if err := p.store.SaveOrder(ctx, order); err != nil {
		return 0, fmt.Errorf("save order update: %w", err)
	}

	note := fmt.Sprintf("Nalda payout status changed: %s -> %s", previous, incoming)
	if err := p.store.AppendOrderNote(ctx, order.ID, note); err != nil {
		return 0, fmt.Errorf("append audit note: %w", err)
	}

	return outcomeUpdated, nil
}

// createOrder builds a new local order from the line group. Unresolved
// GTINs become unlinked line items carrying the raw marketplace title
// instead of failing the order. Notifications stay suppressed until totals
// are final and fire only when the order lands in processing.
func (p *OrderImportPipeline) createOrder(ctx context.Context, id string, lines []models.NaldaOrderLine) (importOutcome, error) {
	first := lines[0]

	order := &models.LocalOrder{
		Status:             models.LocalStatusForDelivery(first.DeliveryStatus),
		Currency:           first.Currency,
		CreatedAt:          first.CreatedAt,
		Billing:            naldaBilling,
		Shipping:           shippingFromCustomer(first.Customer),
		MarketplaceOrderID: id,
		IsMarketplaceOrder: true,
		PayoutStatus:       first.PayoutStatus,
		DeliveryState:      first.DeliveryStatus,
		Meta:               map[string]string{},
	}
	order.SetNeedsStatusExport(false)

	for _, l := range lines {
		product, err := p.matcher.ResolveProduct(ctx, l.GTIN)
		if err != nil {
			return 0, err
		}

		unitNet := l.NetUnitPrice()
		line := models.OrderLine{
			GTIN:     l.GTIN,
			Title:    l.Title,
			Quantity: l.Quantity,
			UnitNet:  unitNet,
			TotalNet: unitNet.Mul(decimalFromInt(l.Quantity)),
		}
		if product != nil {
			line.ProductID = product.ID
			line.Title = product.Name
		} else {
			p.logger.Warn("Marketplace GTIN not found locally, importing unlinked line",
				"marketplace_order_id", id, "gtin", l.GTIN)
		}

		order.Lines = append(order.Lines, line)
	}

	order.RecalculateTotal()

	if first.PayoutStatus == models.PayoutPaidOut {
		now := p.now()
		order.PaymentMethod = PaymentMethodNalda
		order.PaidAt = &now
	}

	if err := p.store.CreateOrder(ctx, order); err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}

	note := fmt.Sprintf("Imported from Nalda marketplace (order %s, %d lines)", id, len(lines))
	if err := p.store.AppendOrderNote(ctx, order.ID, note); err != nil {
		return 0, fmt.Errorf("append import note: %w", err)
	}

	// Fired exactly once, after totals are final, and only for orders the
	// merchant actually has to act on.
	if order.Status == models.StatusProcessing {
		if err := p.store.FireNewOrderNotification(ctx, order.ID); err != nil {
			return 0, fmt.Errorf("fire new order notification: %w", err)
		}
	}

	return outcomeCreated, nil
}

func groupByOrderID(lines []models.NaldaOrderLine) map[string][]models.NaldaOrderLine {
	groups := make(map[string][]models.NaldaOrderLine)
	for _, l := range lines {
		groups[l.OrderID] = append(groups[l.OrderID], l)
	}
	return groups
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func shippingFromCustomer(c models.NaldaCustomer) models.Address {
	return models.Address{
		Name:    c.Name,
		Street:  c.Street,
		Zip:     c.Zip,
		City:    c.City,
		Country: c.Country,
		Email:   c.Email,
	}
}
