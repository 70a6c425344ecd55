package models

// The two mapping tables between Nalda's delivery vocabulary and the shop's
// order statuses. Both are pure lookups with no state, so the same input
// always yields the same output.

// LocalStatusForDelivery maps an incoming Nalda delivery status to the local
// order status used when creating or updating orders. Unknown values fall
// back to processing, the safest state for a paid marketplace order.
func LocalStatusForDelivery(s DeliveryStatus) LocalOrderStatus {
	switch s {
	case DeliveryInPreparation, DeliveryInDelivery:
		return StatusProcessing
	case DeliveryDelivered, DeliveryCollected:
		return StatusCompleted
	case DeliveryUndeliverable, DeliveryNotPickedUp:
		return StatusFailed
	case DeliveryCancelled:
		return StatusCancelled
	case DeliveryReturned:
		return StatusRefunded
	case DeliveryDispute:
		return StatusOnHold
	default:
		return StatusProcessing
	}
}

// DeliveryStateForLocal maps a local order status to the delivery state the
// status feed reports back to Nalda. The second return is false for statuses
// the marketplace has no vocabulary for; those orders are skipped as mapping
// failures.
func DeliveryStateForLocal(s LocalOrderStatus) (DeliveryStatus, bool) {
	switch s {
	case StatusPending, StatusProcessing, StatusOnHold:
		return DeliveryInPreparation, true
	case StatusShipped, StatusInTransit:
		return DeliveryInDelivery, true
	case StatusCompleted, StatusCollected:
		return DeliveryDelivered, true
	case StatusCancelled:
		return DeliveryCancelled, true
	case StatusRefunded:
		return DeliveryReturned, true
	case StatusFailed:
		return DeliveryDispute, true
	default:
		return "", false
	}
}
