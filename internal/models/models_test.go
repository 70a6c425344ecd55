package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResolvedGTIN_PriorityOrder(t *testing.T) {
	tests := []struct {
		name    string
		product ProductRecord
		want    string
	}{
		{"gtin wins", ProductRecord{GTIN: "4001", EAN: "4002", SKU: "SKU-1"}, "4001"},
		{"ean next", ProductRecord{EAN: "4002", Barcode: "4003"}, "4002"},
		{"barcode next", ProductRecord{Barcode: "4003", SKU: "SKU-1"}, "4003"},
		{"sku fallback", ProductRecord{SKU: "SKU-1"}, "SKU-1"},
		{"nothing", ProductRecord{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.ResolvedGTIN())
		})
	}
}

func TestNetUnitPrice_CommissionPerUnit(t *testing.T) {
	line := NaldaOrderLine{
		Quantity:   3,
		UnitPrice:  decimal.RequireFromString("19.90"),
		Commission: decimal.RequireFromString("2.97"),
	}

	// 19.90 - 2.97/3 = 18.91
	assert.True(t, line.NetUnitPrice().Equal(decimal.RequireFromString("18.91")))
}

func TestNetUnitPrice_ZeroQuantityKeepsGross(t *testing.T) {
	line := NaldaOrderLine{
		Quantity:   0,
		UnitPrice:  decimal.RequireFromString("10.00"),
		Commission: decimal.RequireFromString("1.00"),
	}

	assert.True(t, line.NetUnitPrice().Equal(decimal.RequireFromString("10.00")))
}

func TestImportRangeWindow_Buffers(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		selector ImportRange
		wantFrom time.Time
	}{
		{RangeToday, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)},
		{RangeYesterday, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{RangeMonthToDate, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
		{RangeYearToDate, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		{Range3Months, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.selector), func(t *testing.T) {
			from, to := tt.selector.Window(now)
			assert.Equal(t, tt.wantFrom, from)
			// Upper edge always carries the one day forward buffer.
			assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), to)
		})
	}
}

func TestLocalStatusForDelivery_Table(t *testing.T) {
	tests := []struct {
		in   DeliveryStatus
		want LocalOrderStatus
	}{
		{DeliveryInPreparation, StatusProcessing},
		{DeliveryInDelivery, StatusProcessing},
		{DeliveryDelivered, StatusCompleted},
		{DeliveryCollected, StatusCompleted},
		{DeliveryUndeliverable, StatusFailed},
		{DeliveryNotPickedUp, StatusFailed},
		{DeliveryCancelled, StatusCancelled},
		{DeliveryReturned, StatusRefunded},
		{DeliveryDispute, StatusOnHold},
		{DeliveryStatus("SOMETHING_NEW"), StatusProcessing},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LocalStatusForDelivery(tt.in), "input %s", tt.in)
	}
}

func TestDeliveryStateForLocal_IsPure(t *testing.T) {
	// Same input, same output, across repeated calls.
	for i := 0; i < 3; i++ {
		state, ok := DeliveryStateForLocal(StatusRefunded)
		assert.True(t, ok)
		assert.Equal(t, DeliveryReturned, state)

		state, ok = DeliveryStateForLocal(StatusCancelled)
		assert.True(t, ok)
		assert.Equal(t, DeliveryCancelled, state)
	}
}

func TestDeliveryStateForLocal_ShippedExtension(t *testing.T) {
	state, ok := DeliveryStateForLocal(StatusShipped)
	assert.True(t, ok)
	assert.Equal(t, DeliveryInDelivery, state)

	state, ok = DeliveryStateForLocal(StatusInTransit)
	assert.True(t, ok)
	assert.Equal(t, DeliveryInDelivery, state)
}

func TestDeliveryStateForLocal_UnknownStatus(t *testing.T) {
	_, ok := DeliveryStateForLocal(LocalOrderStatus("draft"))
	assert.False(t, ok)
}

func TestTrackingCode_FirstNonEmptyField(t *testing.T) {
	order := LocalOrder{Meta: map[string]string{
		"shipment_tracking_code": "AA123",
		"parcel_number":          "BB456",
	}}

	assert.Equal(t, "AA123", order.TrackingCode())

	order.Meta["tracking_code"] = "CC789"
	assert.Equal(t, "CC789", order.TrackingCode())
}

func TestScheduleState_IsRunningTTL(t *testing.T) {
	now := time.Now()
	until := now.Add(5 * time.Minute)
	state := ScheduleState{RunningUntil: &until}

	assert.True(t, state.IsRunning(now))
	assert.False(t, state.IsRunning(now.Add(10*time.Minute)))
	assert.False(t, (&ScheduleState{}).IsRunning(now))
}
