package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbridge/nalda-sync/internal/match"
	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/synclog"
	"github.com/sellbridge/nalda-sync/internal/testutil"
)

func naldaLine(orderID, gtin string, qty int, unitPrice, commission string) models.NaldaOrderLine {
	return models.NaldaOrderLine{
		OrderID:        orderID,
		GTIN:           gtin,
		Title:          "Marketplace title " + gtin,
		Quantity:       qty,
		UnitPrice:      decimal.RequireFromString(unitPrice),
		Commission:     decimal.RequireFromString(commission),
		PayoutStatus:   models.PayoutOpen,
		DeliveryStatus: models.DeliveryInPreparation,
		Currency:       "CHF",
		CreatedAt:      time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC),
		Customer: models.NaldaCustomer{
			Name: "Anna Muster", Street: "Bahnhofstrasse 1",
			Zip: "8001", City: "Zürich", Country: "CH", Email: "anna@example.ch",
		},
	}
}

func newOrderImportFixture() (*OrderImportPipeline, *testutil.FakeStore, *testutil.FakeClient) {
	store := testutil.NewFakeStore()
	client := &testutil.FakeClient{}
	p := NewOrderImport(store, client, match.NewMatcher(store), &testutil.FakeLicense{IsValid: true},
		synclog.NewMemorySink(), testutil.TestCredentials(), models.RangeToday, testutil.NewTestLogger())
	return p, store, client
}

func TestOrderImport_CreatesOrderFromGroupedLines(t *testing.T) {
	p, store, client := newOrderImportFixture()
	store.ProductsList = []models.ProductRecord{
		{ID: 11, GTIN: "7610000000001", Name: "Local product name"},
	}
	client.Lines = []models.NaldaOrderLine{
		naldaLine("N-1001", "7610000000001", 3, "19.90", "2.97"),
		naldaLine("N-1001", "7610000000002", 1, "5.00", "0.50"),
	}

	res, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, models.RunSuccess, res.Status)
	assert.Equal(t, 1, res.Totals.Total)
	assert.Equal(t, 1, res.Totals.Succeeded)

	require.Len(t, store.Orders, 1)
	order := store.Orders[0]
	assert.Equal(t, "N-1001", order.MarketplaceOrderID)
	assert.True(t, order.IsMarketplaceOrder)
	assert.Equal(t, models.StatusProcessing, order.Status)
	assert.Equal(t, "Nalda AG", order.Billing.Company)
	assert.Equal(t, "Anna Muster", order.Shipping.Name)
	require.Len(t, order.Lines, 2)

	// Linked line takes the local product's identity.
	assert.Equal(t, int64(11), order.Lines[0].ProductID)
	assert.Equal(t, "Local product name", order.Lines[0].Title)

	// Net unit price is gross minus the per-unit commission share.
	wantNet := decimal.RequireFromString("18.91") // 19.90 - 2.97/3
	assert.True(t, order.Lines[0].UnitNet.Equal(wantNet),
		"unit net %s, want %s", order.Lines[0].UnitNet, wantNet)

	// Total is the sum of line nets: 3*18.91 + 1*4.50.
	wantTotal := decimal.RequireFromString("61.23")
	assert.True(t, order.Total.Sub(wantTotal).Abs().LessThan(decimal.RequireFromString("0.01")),
		"total %s, want %s", order.Total, wantTotal)

	// Dirty bit starts initialized and clean.
	require.NotNil(t, order.NeedsStatusExport)
	assert.False(t, *order.NeedsStatusExport)

	assert.Contains(t, store.Notes[order.ID][0], "Imported from Nalda marketplace")
	assert.Equal(t, []int64{order.ID}, store.Notifications)
}

func TestOrderImport_SecondRunIsIdempotent(t *testing.T) {
	p, store, client := newOrderImportFixture()
	client.Lines = []models.NaldaOrderLine{
		naldaLine("N-1001", "7610000000001", 1, "10.00", "1.00"),
	}

	_, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	assert.Len(t, store.Orders, 1)
	assert.Equal(t, 0, res.Totals.Succeeded)
	assert.Equal(t, 1, res.Totals.Skipped)
	// Notification fired only on the creating run.
	assert.Len(t, store.Notifications, 1)
}

func TestOrderImport_UnresolvedGTINImportsUnlinkedLine(t *testing.T) {
	p, store, client := newOrderImportFixture()
	client.Lines = []models.NaldaOrderLine{
		naldaLine("N-1001", "0000000000000", 1, "10.00", "1.00"),
	}

	res, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, models.RunSuccess, res.Status)

	require.Len(t, store.Orders, 1)
	line := store.Orders[0].Lines[0]
	assert.Zero(t, line.ProductID)
	assert.Equal(t, "Marketplace title 0000000000000", line.Title)
}

func TestOrderImport_PayoutTransitionToPaidOut(t *testing.T) {
	p, store, client := newOrderImportFixture()
	client.Lines = []models.NaldaOrderLine{
		naldaLine("N-1001", "7610000000001", 1, "10.00", "1.00"),
	}
	_, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	client.Lines[0].PayoutStatus = models.PayoutPaidOut
	res, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Totals.Updated)
	order := store.Orders[0]
	assert.Equal(t, models.PayoutPaidOut, order.PayoutStatus)
	assert.Equal(t, PaymentMethodNalda, order.PaymentMethod)
	require.NotNil(t, order.PaidAt)

	notes := store.Notes[order.ID]
	assert.Contains(t, notes[len(notes)-1], "open -> paid_out")
}

func TestOrderImport_PayoutRegressionClearsPayment(t *testing.T) {
	p, store, client := newOrderImportFixture()
	paid := naldaLine("N-1001", "7610000000001", 1, "10.00", "1.00")
	paid.PayoutStatus = models.PayoutPaidOut
	client.Lines = []models.NaldaOrderLine{paid}
	_, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)
	require.NotNil(t, store.Orders[0].PaidAt)

	client.Lines[0].PayoutStatus = models.PayoutPending
	_, err = p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	order := store.Orders[0]
	assert.Equal(t, models.PayoutPending, order.PayoutStatus)
	assert.Empty(t, order.PaymentMethod)
	assert.Nil(t, order.PaidAt)
}

func TestOrderImport_NotificationOnlyForProcessingOrders(t *testing.T) {
	p, store, client := newOrderImportFixture()
	cancelled := naldaLine("N-1001", "7610000000001", 1, "10.00", "1.00")
	cancelled.DeliveryStatus = models.DeliveryCancelled
	client.Lines = []models.NaldaOrderLine{cancelled}

	_, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	require.Len(t, store.Orders, 1)
	assert.Equal(t, models.StatusCancelled, store.Orders[0].Status)
	assert.Empty(t, store.Notifications)
}

func TestOrderImport_IntegrityAnomalyIsNeverRepaired(t *testing.T) {
	p, store, client := newOrderImportFixture()
	store.Orders = []*models.LocalOrder{
		{ID: 500, MarketplaceOrderID: "N-1001", IsMarketplaceOrder: false},
	}
	client.Lines = []models.NaldaOrderLine{
		naldaLine("N-1001", "7610000000001", 1, "10.00", "1.00"),
	}

	res, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, models.RunWarning, res.Status)
	assert.Equal(t, 1, res.Totals.Errors)
	require.Len(t, res.ErrorMessages, 1)
	assert.Contains(t, res.ErrorMessages[0], "ownership flag")

	// The anomalous order is untouched and no duplicate was created.
	assert.Len(t, store.Orders, 1)
	assert.False(t, store.Orders[0].IsMarketplaceOrder)
}

func TestOrderImport_DuplicateLocalOrdersAreRowErrors(t *testing.T) {
	p, store, client := newOrderImportFixture()
	store.Orders = []*models.LocalOrder{
		{ID: 1, MarketplaceOrderID: "N-1001", IsMarketplaceOrder: true},
		{ID: 2, MarketplaceOrderID: "N-1001", IsMarketplaceOrder: true},
	}
	client.Lines = []models.NaldaOrderLine{
		naldaLine("N-1001", "7610000000001", 1, "10.00", "1.00"),
		naldaLine("N-2002", "7610000000002", 1, "5.00", "0.50"),
	}

	res, err := p.Run(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	// The healthy order still imports.
	assert.Equal(t, models.RunWarning, res.Status)
	assert.Equal(t, 1, res.Totals.Errors)
	assert.Equal(t, 1, res.Totals.Succeeded)
	assert.Len(t, store.Orders, 3)
}

func TestOrderImport_FetchFailureAbortsRun(t *testing.T) {
	p, store, client := newOrderImportFixture()
	client.FetchErr = errors.New("api unreachable")

	res, err := p.Run(context.Background(), models.TriggerScheduled)
	require.Error(t, err)

	var transport *TransportError
	assert.ErrorAs(t, err, &transport)
	assert.Equal(t, models.RunError, res.Status)
	assert.Empty(t, store.Orders)
}
