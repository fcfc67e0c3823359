package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/internal/identity"
	"github.com/meghshyam-labs/vyapar-backend/internal/notifications"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
)

type stubDispatcher struct {
	sent []notifications.Template
}

func (s *stubDispatcher) Send(_ context.Context, tmpl notifications.Template, _ string, _ notifications.OrderEmailData) error {
	s.sent = append(s.sent, tmpl)
	return nil
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  phone TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  billing_address_id TEXT NOT NULL,
  delivery_address_id TEXT,
  currency TEXT NOT NULL DEFAULT 'INR',
  subtotal NUMERIC NOT NULL,
  tax_amount NUMERIC NOT NULL,
  delivery_charge NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  coupon_code TEXT,
  notes TEXT,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  order_status TEXT NOT NULL DEFAULT 'placed',
  gateway_order_id TEXT,
  payment_verification TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  product_name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  qty INTEGER NOT NULL DEFAULT 1,
  weight_grams INTEGER NOT NULL DEFAULT 0,
  variant_snapshot TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE shipping_details (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  courier TEXT NOT NULL DEFAULT '',
  tracking_id TEXT NOT NULL,
  tracking_url TEXT,
  status TEXT NOT NULL DEFAULT 'processing',
  shipped_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus) *models.Order {
	t.Helper()

	user := &models.User{Email: uuid.NewString() + "@example.com", Name: "Asha Rao", PasswordHash: "x", Active: true}
	require.NoError(t, conn.Create(user).Error)

	order := &models.Order{
		UserID:           user.ID,
		BillingAddressID: uuid.New(),
		Currency:         enums.CurrencyINR,
		Subtotal:         decimal.NewFromInt(1000),
		TaxAmount:        decimal.NewFromInt(100),
		DeliveryCharge:   decimal.NewFromInt(90),
		DiscountAmount:   decimal.Zero,
		Total:            decimal.NewFromInt(1190),
		PaymentMethod:    enums.PaymentMethodUPI,
		PaymentStatus:    enums.PaymentStatusPending,
		OrderStatus:      status,
	}
	require.NoError(t, conn.Create(order).Error)

	detail := &models.ShippingDetail{OrderID: order.ID, TrackingID: "VY-PLACEHOLDER", Status: enums.ShippingStatusProcessing}
	require.NoError(t, conn.Create(detail).Error)
	return order
}

func newOrdersService(t *testing.T, conn *gorm.DB, dispatcher notifications.Dispatcher) Service {
	t.Helper()
	svc, err := NewService(db.NewFromConn(conn), NewRepository(conn), identity.NewRepository(conn), dispatcher, nil)
	require.NoError(t, err)
	return svc
}

func TestTransitionShippedStampsShippingDate(t *testing.T) {
	conn := setupOrdersTestDB(t)
	dispatcher := &stubDispatcher{}
	svc := newOrdersService(t, conn, dispatcher)
	order := seedOrder(t, conn, enums.OrderStatusPlaced)

	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusShipped, updated.OrderStatus)
	require.NotNil(t, updated.ShippingDetail)
	assert.Equal(t, enums.ShippingStatusShipped, updated.ShippingDetail.Status)
	assert.NotNil(t, updated.ShippingDetail.ShippedAt)
	assert.Equal(t, []notifications.Template{notifications.TemplateStatusUpdate}, dispatcher.sent)
}

func TestTransitionDeliveredMarksDetail(t *testing.T) {
	conn := setupOrdersTestDB(t)
	dispatcher := &stubDispatcher{}
	svc := newOrdersService(t, conn, dispatcher)
	order := seedOrder(t, conn, enums.OrderStatusShipped)

	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusDelivered, updated.OrderStatus)
	require.NotNil(t, updated.ShippingDetail)
	assert.Equal(t, enums.ShippingStatusDelivered, updated.ShippingDetail.Status)
}

func TestTransitionRejectsBackwardMove(t *testing.T) {
	conn := setupOrdersTestDB(t)
	dispatcher := &stubDispatcher{}
	svc := newOrdersService(t, conn, dispatcher)
	order := seedOrder(t, conn, enums.OrderStatusDelivered)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusPlaced)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Empty(t, dispatcher.sent)

	reloaded, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, reloaded.OrderStatus)
}

func TestAddTrackingForceAdvancesToShipped(t *testing.T) {
	conn := setupOrdersTestDB(t)
	dispatcher := &stubDispatcher{}
	svc := newOrdersService(t, conn, dispatcher)
	order := seedOrder(t, conn, enums.OrderStatusProcessing)

	url := "https://courier.example.com/track/TRK-1"
	updated, err := svc.AddTracking(context.Background(), order.ID, TrackingInput{
		Courier:     "BlueDart",
		TrackingID:  "TRK-1",
		TrackingURL: &url,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusShipped, updated.OrderStatus)
	require.NotNil(t, updated.ShippingDetail)
	assert.Equal(t, "BlueDart", updated.ShippingDetail.Courier)
	assert.Equal(t, "TRK-1", updated.ShippingDetail.TrackingID)
	assert.Equal(t, enums.ShippingStatusShipped, updated.ShippingDetail.Status)
	assert.NotNil(t, updated.ShippingDetail.ShippedAt)
	assert.Equal(t, []notifications.Template{notifications.TemplateStatusUpdate}, dispatcher.sent)
}

func TestAddTrackingOnShippedOrderOnlyUpdatesDetail(t *testing.T) {
	conn := setupOrdersTestDB(t)
	dispatcher := &stubDispatcher{}
	svc := newOrdersService(t, conn, dispatcher)
	order := seedOrder(t, conn, enums.OrderStatusShipped)

	updated, err := svc.AddTracking(context.Background(), order.ID, TrackingInput{Courier: "Delhivery", TrackingID: "TRK-2"})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusShipped, updated.OrderStatus)
	assert.Equal(t, "TRK-2", updated.ShippingDetail.TrackingID)
	assert.Empty(t, dispatcher.sent)
}

func TestAddTrackingRejectsTerminalOrder(t *testing.T) {
	conn := setupOrdersTestDB(t)
	dispatcher := &stubDispatcher{}
	svc := newOrdersService(t, conn, dispatcher)
	order := seedOrder(t, conn, enums.OrderStatusCancelled)

	_, err := svc.AddTracking(context.Background(), order.ID, TrackingInput{Courier: "BlueDart", TrackingID: "TRK-3"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestGetUnknownOrder(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn, &stubDispatcher{})

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
