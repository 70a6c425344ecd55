// Package match resolves cross-system identity: marketplace GTINs to local
// products and marketplace order IDs to local orders.
package match

import (
	"context"
	"fmt"

	"github.com/sellbridge/nalda-sync/internal/commerce"
	"github.com/sellbridge/nalda-sync/internal/models"
)

// Matcher performs identity lookups against the commerce backend.
type Matcher struct {
	store commerce.Store
}

func NewMatcher(store commerce.Store) *Matcher {
	return &Matcher{store: store}
}

// ResolveProduct tries each known identifier field in priority order, then
// falls back to the SKU-as-GTIN lookup. First match wins. If several
// products share an identifier the result is whichever the store returns
// first; there is deliberately no tie-break (known limitation, the upstream
// data owns that ambiguity).
func (m *Matcher) ResolveProduct(ctx context.Context, externalID string) (*models.ProductRecord, error) {
	if externalID == "" {
		return nil, nil
	}

	for _, field := range models.ExternalIDFields {
		p, err := m.store.ProductByField(ctx, field, externalID)
		if err != nil {
			return nil, fmt.Errorf("product lookup by %s: %w", field, err)
		}
		if p != nil {
			return p, nil
		}
	}

	return nil, nil
}

// ResolveLocalOrder is an equality lookup on the stored marketplace order
// ID. More than one match is a data integrity defect surfaced to the
// caller, never silently picked.
func (m *Matcher) ResolveLocalOrder(ctx context.Context, marketplaceOrderID string) (*models.LocalOrder, error) {
	orders, err := m.store.OrdersByMarketplaceID(ctx, marketplaceOrderID)
	if err != nil {
		return nil, fmt.Errorf("order lookup: %w", err)
	}

	switch len(orders) {
	case 0:
		return nil, nil
	case 1:
		return orders[0], nil
	default:
		return nil, &DuplicateOrderError{MarketplaceOrderID: marketplaceOrderID, Count: len(orders)}
	}
}

// DuplicateOrderError reports that the at-most-one invariant on the
// marketplace order ID is violated in the local store.
type DuplicateOrderError struct {
	MarketplaceOrderID string
	Count              int
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("%d local orders share marketplace order id %s", e.Count, e.MarketplaceOrderID)
}
