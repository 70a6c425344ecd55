// Package commerce defines the boundary to the merchant's commerce backend.
// The engine only consumes this interface; the backing implementation lives
// with the shop platform and is injected at wiring time.
package commerce

import (
	"context"

	"github.com/sellbridge/nalda-sync/internal/models"
)

// Settings are the shop-wide values feed generation needs. Country and
// currency are deliberately not per-product.
type Settings struct {
	Country      string
	Currency     string
	DeliveryDays int
	ReturnDays   int

	// ExportDefaultInclude decides feed inclusion for products whose
	// preference is ExportDefault.
	ExportDefaultInclude bool
}

// OrderStatusListener observes order status transitions at the store's
// mutation boundary. The status export pipeline registers one to maintain
// its dirty bit; it must never block or mutate the order it receives beyond
// the linkage metadata.
type OrderStatusListener interface {
	OnTransition(ctx context.Context, order *models.LocalOrder, oldStatus, newStatus models.LocalOrderStatus)
}

// Store is the read-write abstraction over the commerce backend's products
// and orders.
type Store interface {
	Settings(ctx context.Context) (Settings, error)

	// Products returns the full product read model for feed generation.
	Products(ctx context.Context) ([]models.ProductRecord, error)

	// ProductByField looks up a product by one identifier field (see
	// models.ExternalIDFields). Behavior with duplicate identifiers is
	// undefined: the first stored match wins.
	ProductByField(ctx context.Context, field, value string) (*models.ProductRecord, error)

	// OrdersByMarketplaceID returns every local order annotated with the
	// given marketplace order ID. More than one result is an integrity
	// defect the caller must surface.
	OrdersByMarketplaceID(ctx context.Context, marketplaceOrderID string) ([]*models.LocalOrder, error)

	// StatusExportCandidates returns marketplace-owned orders whose dirty
	// bit is set or was never initialized.
	StatusExportCandidates(ctx context.Context) ([]*models.LocalOrder, error)

	// OrdersWithLinkage returns every order carrying a marketplace order ID
	// regardless of ownership flag. Used by the reconciliation job.
	OrdersWithLinkage(ctx context.Context) ([]*models.LocalOrder, error)

	// CreateOrder persists a new order. Implementations must not fire
	// new-order notifications here; the import pipeline triggers them
	// explicitly once totals are final.
	CreateOrder(ctx context.Context, order *models.LocalOrder) error

	SaveOrder(ctx context.Context, order *models.LocalOrder) error

	AppendOrderNote(ctx context.Context, orderID int64, note string) error

	// FireNewOrderNotification triggers the shop's customer/merchant
	// notifications for an already persisted order.
	FireNewOrderNotification(ctx context.Context, orderID int64) error

	// RegisterStatusListener attaches a listener to the order mutation
	// boundary.
	RegisterStatusListener(l OrderStatusListener)
}
