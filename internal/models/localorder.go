package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocalOrderStatus is the shop-side order status vocabulary.
type LocalOrderStatus string

const (
	StatusPending    LocalOrderStatus = "pending"
	StatusProcessing LocalOrderStatus = "processing"
	StatusOnHold     LocalOrderStatus = "on-hold"
	StatusShipped    LocalOrderStatus = "shipped"
	StatusInTransit  LocalOrderStatus = "in-transit"
	StatusCompleted  LocalOrderStatus = "completed"
	StatusCollected  LocalOrderStatus = "collected"
	StatusCancelled  LocalOrderStatus = "cancelled"
	StatusRefunded   LocalOrderStatus = "refunded"
	StatusFailed     LocalOrderStatus = "failed"
)

// Address is a billing or shipping identity block on a local order.
type Address struct {
	Name    string
	Company string
	Street  string
	Zip     string
	City    string
	Country string
	Email   string
}

// OrderLine is one position of a local order. ProductID is zero when the
// marketplace GTIN could not be resolved; the line then carries the raw
// marketplace title instead of a product link.
type OrderLine struct {
	ProductID int64
	GTIN      string
	Title     string
	Quantity  int
	UnitNet   decimal.Decimal
	TotalNet  decimal.Decimal
}

// TrackingFields is the priority order of meta keys searched for a tracking
// code when exporting order status.
var TrackingFields = []string{"tracking_code", "shipment_tracking_code", "parcel_number"}

// LocalOrder is the commerce backend's order annotated with Nalda linkage
// metadata. MarketplaceOrderID is the sole external identity: an order
// either wholly belongs to the marketplace integration (IsMarketplaceOrder
// set) or not at all. An order carrying the ID without the flag is a data
// integrity defect handled only by the reconciliation job.
type LocalOrder struct {
	ID        int64
	Status    LocalOrderStatus
	Currency  string
	CreatedAt time.Time

	Billing  Address
	Shipping Address
	Lines    []OrderLine
	Total    decimal.Decimal

	PaymentMethod string
	PaidAt        *time.Time

	MarketplaceOrderID string
	IsMarketplaceOrder bool
	PayoutStatus       PayoutStatus
	DeliveryState      DeliveryStatus

	// NeedsStatusExport is the edge-triggered dirty bit. nil means the flag
	// was never initialized, which the status export treats as dirty.
	NeedsStatusExport  *bool
	LastStatusExportAt *time.Time

	Meta map[string]string
}

// RecalculateTotal sums the line net totals into Total.
func (o *LocalOrder) RecalculateTotal() {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.TotalNet)
	}
	o.Total = total
}

// TrackingCode returns the first non-empty known tracking meta field.
func (o *LocalOrder) TrackingCode() string {
	for _, key := range TrackingFields {
		if v := o.Meta[key]; v != "" {
			return v
		}
	}
	return ""
}

// SetNeedsStatusExport initializes or flips the dirty bit.
func (o *LocalOrder) SetNeedsStatusExport(v bool) {
	o.NeedsStatusExport = &v
}
