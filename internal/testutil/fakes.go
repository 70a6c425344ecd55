// Package testutil provides in-memory fakes of the external collaborators
// (commerce backend, marketplace client) for package tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sellbridge/nalda-sync/internal/commerce"
	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/nalda"
)

// NewTestLogger returns a logger that discards nothing but stays quiet at
// default test verbosity.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// FakeStore is an in-memory commerce.Store with error injection knobs.
type FakeStore struct {
	mu sync.Mutex

	StoreSettings commerce.Settings
	ProductsList  []models.ProductRecord
	Orders        []*models.LocalOrder

	Notes         map[int64][]string
	Notifications []int64
	listeners     []commerce.OrderStatusListener

	nextID int64

	ProductsErr error
	SaveErr     error
	CreateErr   error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		StoreSettings: commerce.Settings{
			Country:              "CH",
			Currency:             "CHF",
			DeliveryDays:         3,
			ReturnDays:           30,
			ExportDefaultInclude: true,
		},
		Notes:  make(map[int64][]string),
		nextID: 1000,
	}
}

func (s *FakeStore) Settings(context.Context) (commerce.Settings, error) {
	return s.StoreSettings, nil
}

func (s *FakeStore) Products(context.Context) ([]models.ProductRecord, error) {
	if s.ProductsErr != nil {
		return nil, s.ProductsErr
	}
	return s.ProductsList, nil
}

func (s *FakeStore) ProductByField(_ context.Context, field, value string) (*models.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ProductsList {
		if s.ProductsList[i].ExternalID(field) == value {
			return &s.ProductsList[i], nil
		}
	}
	return nil, nil
}

func (s *FakeStore) OrdersByMarketplaceID(_ context.Context, id string) ([]*models.LocalOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LocalOrder
	for _, o := range s.Orders {
		if o.MarketplaceOrderID == id {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *FakeStore) StatusExportCandidates(context.Context) ([]*models.LocalOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LocalOrder
	for _, o := range s.Orders {
		if !o.IsMarketplaceOrder {
			continue
		}
		if o.NeedsStatusExport == nil || *o.NeedsStatusExport {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *FakeStore) OrdersWithLinkage(context.Context) ([]*models.LocalOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LocalOrder
	for _, o := range s.Orders {
		if o.MarketplaceOrderID != "" {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *FakeStore) CreateOrder(_ context.Context, order *models.LocalOrder) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	order.ID = s.nextID
	s.Orders = append(s.Orders, order)
	return nil
}

func (s *FakeStore) SaveOrder(_ context.Context, order *models.LocalOrder) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.Orders {
		if o.ID == order.ID {
			s.Orders[i] = order
			return nil
		}
	}
	return errors.New("order not found")
}

func (s *FakeStore) AppendOrderNote(_ context.Context, orderID int64, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notes[orderID] = append(s.Notes[orderID], note)
	return nil
}

func (s *FakeStore) FireNewOrderNotification(_ context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = append(s.Notifications, orderID)
	return nil
}

func (s *FakeStore) RegisterStatusListener(l commerce.OrderStatusListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// TransitionOrderStatus simulates the commerce platform mutating an order
// status, dispatching registered listeners like the real mutation boundary.
func (s *FakeStore) TransitionOrderStatus(ctx context.Context, order *models.LocalOrder, newStatus models.LocalOrderStatus) {
	old := order.Status
	order.Status = newStatus

	s.mu.Lock()
	listeners := append([]commerce.OrderStatusListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnTransition(ctx, order, old, newStatus)
	}
}

// FakeClient is an in-memory pipeline.MarketplaceClient.
type FakeClient struct {
	mu sync.Mutex

	Lines    []models.NaldaOrderLine
	FetchErr error

	UploadErr error
	Uploads   []FakeUpload
}

// FakeUpload captures one UploadCSV call.
type FakeUpload struct {
	FeedType nalda.FeedType
	Filename string
	Data     []byte
}

func (c *FakeClient) FetchOrderLines(_ context.Context, apiKey string, from, to time.Time) ([]models.NaldaOrderLine, error) {
	if c.FetchErr != nil {
		return nil, c.FetchErr
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing api key")
	}
	return c.Lines, nil
}

func (c *FakeClient) UploadCSV(_ context.Context, _ models.SyncCredentials, feedType nalda.FeedType, filename string, data []byte) error {
	if c.UploadErr != nil {
		return c.UploadErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Uploads = append(c.Uploads, FakeUpload{FeedType: feedType, Filename: filename, Data: data})
	return nil
}

// FakeLicense is a toggleable license checker.
type FakeLicense struct {
	IsValid bool
}

func (l *FakeLicense) Valid(context.Context) bool { return l.IsValid }
func (l *FakeLicense) Key() string                { return "test-license" }

// TestCredentials returns a complete credential set for pipeline tests.
func TestCredentials() models.SyncCredentials {
	return models.SyncCredentials{
		Host:     "transfer.nalda.test",
		Port:     22,
		Username: "shop",
		Secret:   "secret",
		APIKey:   "api-key",
	}
}
