package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus is Nalda's indicator of whether the merchant has been paid
// for an order.
type PayoutStatus string

const (
	PayoutOpen    PayoutStatus = "open"
	PayoutPending PayoutStatus = "pending"
	PayoutPaidOut PayoutStatus = "paid_out"
)

// DeliveryStatus is Nalda's fulfillment stage vocabulary, distinct from the
// shop-side order status.
type DeliveryStatus string

const (
	DeliveryInPreparation DeliveryStatus = "IN_PREPARATION"
	DeliveryInDelivery    DeliveryStatus = "IN_DELIVERY"
	DeliveryDelivered     DeliveryStatus = "DELIVERED"
	DeliveryCollected     DeliveryStatus = "COLLECTED"
	DeliveryUndeliverable DeliveryStatus = "UNDELIVERABLE"
	DeliveryNotPickedUp   DeliveryStatus = "NOT_PICKED_UP"
	DeliveryCancelled     DeliveryStatus = "CANCELLED"
	DeliveryReturned      DeliveryStatus = "RETURNED"
	DeliveryDispute       DeliveryStatus = "DISPUTE"
)

// NaldaCustomer is the buyer identity attached to each order line.
type NaldaCustomer struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country"`
	Email   string `json:"email"`
}

// NaldaOrderLine is one deliverable unit as the marketplace API reports it.
// Multiple lines sharing an OrderID belong to the same order.
type NaldaOrderLine struct {
	OrderID             string          `json:"order_id"`
	GTIN                string          `json:"gtin"`
	Title               string          `json:"title"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Commission          decimal.Decimal `json:"commission"`
	PayoutStatus        PayoutStatus    `json:"payout_status"`
	DeliveryStatus      DeliveryStatus  `json:"delivery_status"`
	Customer            NaldaCustomer   `json:"customer"`
	Currency            string          `json:"currency"`
	CreatedAt           time.Time       `json:"created_at"`
	DeliveryDatePlanned string          `json:"delivery_date_planned"`
}

// NetUnitPrice is what the merchant actually receives per unit: the gross
// unit price minus the per-unit share of the marketplace commission.
func (l NaldaOrderLine) NetUnitPrice() decimal.Decimal {
	if l.Quantity <= 0 {
		return l.UnitPrice
	}
	perUnit := l.Commission.Div(decimal.NewFromInt(int64(l.Quantity)))
	return l.UnitPrice.Sub(perUnit)
}

// ImportRange selects how far back the order import pipeline looks.
type ImportRange string

const (
	RangeToday       ImportRange = "today"
	RangeYesterday   ImportRange = "yesterday"
	RangeMonthToDate ImportRange = "month"
	RangeYearToDate  ImportRange = "year"
	Range3Months     ImportRange = "3months"
	Range6Months     ImportRange = "6months"
	Range12Months    ImportRange = "12months"
	Range24Months    ImportRange = "24months"
)

// Window computes the fetch window for the selector. Both edges carry a one
// day buffer to absorb timezone skew between the shop host and Nalda.
func (r ImportRange) Window(now time.Time) (from, to time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var base time.Time
	switch r {
	case RangeYesterday:
		base = today.AddDate(0, 0, -1)
	case RangeMonthToDate:
		base = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case RangeYearToDate:
		base = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	case Range3Months:
		base = today.AddDate(0, -3, 0)
	case Range6Months:
		base = today.AddDate(0, -6, 0)
	case Range12Months:
		base = today.AddDate(0, -12, 0)
	case Range24Months:
		base = today.AddDate(0, -24, 0)
	default: // RangeToday
		base = today
	}

	return base.AddDate(0, 0, -1), today.AddDate(0, 0, 1)
}
