package feed

import (
	"fmt"
	"time"

	"github.com/sellbridge/nalda-sync/internal/models"
)

// StatusColumns is the fixed order status feed schema: one row per
// deliverable line item.
var StatusColumns = []string{
	"order_id", "gtin", "state", "expected_delivery_date", "tracking_code",
}

// expectedDeliveryFormat is the dd.mm.yy layout the feed channel expects.
const expectedDeliveryFormat = "02.01.06"

// BuildStatusRows maps one order to its status feed rows. Lines without a
// GTIN are silently dropped: the feed schema requires one row per
// deliverable unit and an unlinked line has no unit Nalda knows. An error is
// returned only when the order's status has no marketplace mapping; that is
// row-scoped for the caller.
func BuildStatusRows(order *models.LocalOrder, deliveryDays int) ([][]string, error) {
	state, ok := models.DeliveryStateForLocal(order.Status)
	if !ok {
		return nil, fmt.Errorf("order %d status %q has no marketplace mapping", order.ID, order.Status)
	}

	expected := order.CreatedAt.AddDate(0, 0, deliveryDays).Format(expectedDeliveryFormat)
	tracking := order.TrackingCode()

	var rows [][]string
	for _, line := range order.Lines {
		if line.GTIN == "" {
			continue
		}
		rows = append(rows, []string{
			order.MarketplaceOrderID,
			line.GTIN,
			string(state),
			expected,
			tracking,
		})
	}

	return rows, nil
}

// StatusFilename names an order status feed upload.
func StatusFilename(now time.Time) string {
	return fmt.Sprintf("orders_%s.csv", now.Format("20060102_150405"))
}
