package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/internal/address"
	"github.com/meghshyam-labs/vyapar-backend/internal/identity"
	"github.com/meghshyam-labs/vyapar-backend/internal/notifications"
	"github.com/meghshyam-labs/vyapar-backend/internal/orders"
	"github.com/meghshyam-labs/vyapar-backend/internal/shipping"
	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
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

// failingLineItemsRepo forces a mid-transaction failure to exercise rollback.
type failingLineItemsRepo struct {
	orders.Repository
}

func (r *failingLineItemsRepo) WithTx(tx *gorm.DB) orders.Repository {
	return &failingLineItemsRepo{Repository: r.Repository.WithTx(tx)}
}

func (r *failingLineItemsRepo) CreateLineItems(context.Context, []models.OrderLineItem) error {
	return errors.New("simulated insert failure")
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE countries (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  code TEXT NOT NULL
);`,
		`CREATE TABLE regions (
  id TEXT PRIMARY KEY,
  country_id TEXT NOT NULL,
  name TEXT NOT NULL
);`,
		`CREATE TABLE addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  kind TEXT NOT NULL DEFAULT 'billing',
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  phone TEXT,
  country_id TEXT NOT NULL,
  region_id TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
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

	country := &models.Country{Name: "India", Code: "IN"}
	require.NoError(t, conn.Create(country).Error)
	require.NoError(t, conn.Create(&models.Region{CountryID: country.ID, Name: "Maharashtra"}).Error)
	return conn
}

type checkoutFixture struct {
	conn       *gorm.DB
	svc        Service
	dispatcher *stubDispatcher
}

func newCheckoutFixture(t *testing.T, conn *gorm.DB, repo orders.Repository) *checkoutFixture {
	t.Helper()

	dispatcher := &stubDispatcher{}

	identitySvc, err := identity.NewService(
		identity.NewRepository(conn),
		config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		config.JWTConfig{Secret: "test-secret", Issuer: "vyapar-test", SessionTTLDays: 30},
	)
	require.NoError(t, err)

	addressSvc, err := address.NewService(address.NewRepository(conn), nil)
	require.NoError(t, err)

	calculator := shipping.NewCalculator(config.ShippingConfig{
		BaseFee:        50,
		BlockFee:       40,
		BlockGrams:     500,
		ExpeditedFee:   100,
		ForeignFlatFee: 100,
	}, enums.CurrencyINR)

	svc, err := NewService(
		db.NewFromConn(conn),
		identitySvc,
		addressSvc,
		repo,
		calculator,
		dispatcher,
		nil,
		nil,
		enums.CurrencyINR,
	)
	require.NoError(t, err)

	return &checkoutFixture{conn: conn, svc: svc, dispatcher: dispatcher}
}

func placeOrderInput() PlaceOrderInput {
	weight := 300
	return PlaceOrderInput{
		Customer: identity.ResolveInput{
			Email:     "asha@example.com",
			FirstName: "Asha",
			LastName:  "Rao",
		},
		Billing: address.Input{
			Line1:      "14 MG Road",
			City:       "Pune",
			PostalCode: "411001",
			Country:    "India",
			Region:     "Maharashtra",
		},
		Items: []ItemInput{
			{
				ProductID:       uuid.New(),
				ProductName:     "Steel Bottle",
				LocalUnitPrice:  decimal.NewFromInt(500),
				Qty:             2,
				UnitWeightGrams: &weight,
			},
		},
		Currency:       "INR",
		ShippingMethod: "standard",
		PaymentMethod:  "upi",
		Totals: ClaimedTotals{
			Subtotal:       decimal.NewFromInt(1000),
			TaxAmount:      decimal.NewFromInt(100),
			DeliveryCharge: decimal.NewFromInt(90),
			DiscountAmount: decimal.Zero,
		},
	}
}

func TestPlaceOrderEndToEndTotals(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	out, err := f.svc.PlaceOrder(context.Background(), placeOrderInput())
	require.NoError(t, err)

	order := out.Order
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal %s", order.Subtotal)
	assert.True(t, order.DeliveryCharge.Equal(decimal.NewFromInt(90)), "delivery %s", order.DeliveryCharge)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(1190)), "total %s", order.Total)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPlaced, order.OrderStatus)
	assert.Equal(t, enums.PaymentMethodUPI, order.PaymentMethod)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Qty)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(500)))

	require.NotNil(t, order.ShippingDetail)
	assert.Equal(t, enums.ShippingStatusProcessing, order.ShippingDetail.Status)
	assert.NotEmpty(t, order.ShippingDetail.TrackingID)

	assert.Equal(t, "asha@example.com", out.User.Email)
	assert.Equal(t, []notifications.Template{notifications.TemplateOrderConfirmation}, f.dispatcher.sent)
}

func TestPlaceOrderRejectsSubtotalDrift(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.Totals.Subtotal = decimal.NewFromInt(500)

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPlaceOrderAcceptsRoundingDrift(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.Totals.Subtotal = decimal.RequireFromString("1000.75")

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
}

func TestPlaceOrderRejectsShippingDrift(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.Totals.DeliveryCharge = decimal.Zero

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestPlaceOrderRollsBackOnLineItemFailure(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, &failingLineItemsRepo{Repository: orders.NewRepository(conn)})

	_, err := f.svc.PlaceOrder(context.Background(), placeOrderInput())
	require.Error(t, err)

	var users, ordersCount, addresses int64
	require.NoError(t, conn.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, conn.Model(&models.Order{}).Count(&ordersCount).Error)
	require.NoError(t, conn.Model(&models.Address{}).Count(&addresses).Error)
	assert.Zero(t, users)
	assert.Zero(t, ordersCount)
	assert.Zero(t, addresses)
	assert.Empty(t, f.dispatcher.sent)
}

func TestPlaceOrderMapsUnknownPaymentMethodToOnline(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.PaymentMethod = "super-wallet-3000"

	out, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodOnline, out.Order.PaymentMethod)
}

func TestPlaceOrderCODSendsConfirmation(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.PaymentMethod = "cod"

	out, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodCOD, out.Order.PaymentMethod)
	assert.Equal(t, []notifications.Template{notifications.TemplateOrderConfirmation}, f.dispatcher.sent)
}

func TestPlaceOrderDefaultsQtyToOne(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.Items[0].Qty = 0
	input.Totals.Subtotal = decimal.NewFromInt(500)
	input.Totals.TaxAmount = decimal.NewFromInt(50)
	input.Totals.DeliveryCharge = decimal.NewFromInt(50)

	out, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Order.Items, 1)
	assert.Equal(t, 1, out.Order.Items[0].Qty)
	assert.True(t, out.Order.Total.Equal(decimal.NewFromInt(600)), "total %s", out.Order.Total)
}

func TestPlaceOrderOptInReturnsSessionToken(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.Customer.CreateAccount = true
	input.Customer.Password = "correct horse battery"

	out, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.NotEmpty(t, out.SessionToken)
}

func TestPlaceOrderRequiresItems(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	f := newCheckoutFixture(t, conn, orders.NewRepository(conn))

	input := placeOrderInput()
	input.Items = nil

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
}
