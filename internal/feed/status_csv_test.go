package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbridge/nalda-sync/internal/models"
)

func testStatusOrder() *models.LocalOrder {
	return &models.LocalOrder{
		ID:                 77,
		MarketplaceOrderID: "N-1001",
		IsMarketplaceOrder: true,
		Status:             models.StatusShipped,
		CreatedAt:          time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC),
		Lines: []models.OrderLine{
			{GTIN: "7612345678901", Title: "Bergkäse 500g", Quantity: 2},
			{GTIN: "7612345678902", Title: "Alpenbutter", Quantity: 1},
		},
		Meta: map[string]string{"tracking_code": "99.00.123456"},
	}
}

func TestBuildStatusRows_SchemaAndMapping(t *testing.T) {
	rows, err := BuildStatusRows(testStatusOrder(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Len(t, StatusColumns, 5)
	for _, row := range rows {
		require.Len(t, row, 5)
		assert.Equal(t, "N-1001", row[0])
		assert.Equal(t, "IN_DELIVERY", row[2])
		assert.Equal(t, "18.05.24", row[3]) // created + 3 delivery days, dd.mm.yy
		assert.Equal(t, "99.00.123456", row[4])
	}
	assert.Equal(t, "7612345678901", rows[0][1])
	assert.Equal(t, "7612345678902", rows[1][1])
}

func TestBuildStatusRows_DropsLinesWithoutGTIN(t *testing.T) {
	order := testStatusOrder()
	order.Lines[1].GTIN = ""

	rows, err := BuildStatusRows(order, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7612345678901", rows[0][1])
}

func TestBuildStatusRows_UnmappableStatus(t *testing.T) {
	order := testStatusOrder()
	order.Status = "draft"

	_, err := BuildStatusRows(order, 3)
	assert.ErrorContains(t, err, "no marketplace mapping")
}

func TestBuildStatusRows_NoTrackingLeavesColumnEmpty(t *testing.T) {
	order := testStatusOrder()
	order.Meta = nil

	rows, err := BuildStatusRows(order, 3)
	require.NoError(t, err)
	assert.Equal(t, "", rows[0][4])
}

func TestStatusFilename(t *testing.T) {
	now := time.Date(2024, 5, 15, 10, 30, 45, 0, time.UTC)
	assert.Equal(t, "orders_20240515_103045.csv", StatusFilename(now))
	assert.Equal(t, "products_20240515_103045.csv", ProductFilename(now))
}
