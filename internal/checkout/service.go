package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/internal/address"
	"github.com/meghshyam-labs/vyapar-backend/internal/identity"
	"github.com/meghshyam-labs/vyapar-backend/internal/notifications"
	"github.com/meghshyam-labs/vyapar-backend/internal/orders"
	"github.com/meghshyam-labs/vyapar-backend/internal/shipping"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
	"github.com/meghshyam-labs/vyapar-backend/pkg/metrics"
	"github.com/meghshyam-labs/vyapar-backend/pkg/types"
)

// totalsTolerance is the maximum drift allowed between the storefront's
// claimed subtotal or delivery charge and the server-side recomputation.
var totalsTolerance = decimal.NewFromInt(1)

// ItemInput is one cart line as submitted at checkout. Prices come in both
// the local and foreign fields; the order currency selects which one is
// frozen into the line item.
type ItemInput struct {
	ProductID          uuid.UUID
	VariantID          *uuid.UUID
	ProductName        string
	LocalUnitPrice     decimal.Decimal
	ForeignUnitPrice   decimal.Decimal
	Qty                int
	UnitWeightGrams    *int
	VariantWeightGrams *int
	VariantAttributes  types.JSONMap
}

// ClaimedTotals are the storefront-computed amounts. Subtotal and delivery
// charge are validated against the server recomputation; tax and discount
// are recorded as claimed.
type ClaimedTotals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DeliveryCharge decimal.Decimal
	DiscountAmount decimal.Decimal
}

// PlaceOrderInput is the full checkout payload.
type PlaceOrderInput struct {
	Customer       identity.ResolveInput
	Billing        address.Input
	Delivery       *address.Input
	Items          []ItemInput
	Currency       string
	ShippingMethod string
	PaymentMethod  string
	CouponCode     *string
	Notes          *string
	Totals         ClaimedTotals
}

// PlaceOrderOutput is the committed order plus response-channel side effects.
type PlaceOrderOutput struct {
	Order        *models.Order
	User         *models.User
	SessionToken string
}

// Service is the checkout transaction coordinator: everything between the
// submit button and a committed order row.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderOutput, error)
}

type service struct {
	client       *db.Client
	identitySvc  identity.Service
	addressSvc   address.Service
	repo         orders.Repository
	calculator   *shipping.Calculator
	dispatcher   notifications.Dispatcher
	metrics      *metrics.Registry
	logg         *logger.Logger
	baseCurrency enums.Currency
}

// NewService wires the checkout coordinator.
func NewService(
	client *db.Client,
	identitySvc identity.Service,
	addressSvc address.Service,
	repo orders.Repository,
	calculator *shipping.Calculator,
	dispatcher notifications.Dispatcher,
	reg *metrics.Registry,
	logg *logger.Logger,
	baseCurrency enums.Currency,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if identitySvc == nil {
		return nil, fmt.Errorf("identity service required")
	}
	if addressSvc == nil {
		return nil, fmt.Errorf("address service required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("shipping calculator required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if !baseCurrency.IsValid() {
		baseCurrency = enums.CurrencyINR
	}
	return &service{
		client:       client,
		identitySvc:  identitySvc,
		addressSvc:   addressSvc,
		repo:         repo,
		calculator:   calculator,
		dispatcher:   dispatcher,
		metrics:      reg,
		logg:         logg,
		baseCurrency: baseCurrency,
	}, nil
}

// PlaceOrder validates the payload, reconciles totals, and commits the whole
// order graph in one transaction. A failure at any step leaves no partial
// rows behind. The confirmation email goes out after commit and never fails
// the checkout.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderOutput, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	currency, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(input.Currency)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	method, err := enums.ParseShippingMethod(strings.ToLower(strings.TrimSpace(input.ShippingMethod)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	paymentMethod := enums.MapPaymentMethod(strings.ToLower(strings.TrimSpace(input.PaymentMethod)))

	totals, err := s.reconcileTotals(input, currency, method)
	if err != nil {
		return nil, err
	}

	var (
		resolution *identity.Resolution
		order      *models.Order
	)
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		resolution, err = s.identitySvc.Resolve(ctx, tx, input.Customer)
		if err != nil {
			return err
		}

		recorded, err := s.addressSvc.Record(ctx, tx, resolution.User.ID, input.Billing, input.Delivery)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		header := &models.Order{
			UserID:           resolution.User.ID,
			BillingAddressID: recorded.Billing.ID,
			Currency:         currency,
			Subtotal:         totals.Subtotal,
			TaxAmount:        totals.TaxAmount,
			DeliveryCharge:   totals.DeliveryCharge,
			DiscountAmount:   totals.DiscountAmount,
			Total:            totals.total(),
			CouponCode:       input.CouponCode,
			Notes:            input.Notes,
			PaymentMethod:    paymentMethod,
			PaymentStatus:    enums.PaymentStatusPending,
			OrderStatus:      enums.OrderStatusPlaced,
		}
		if recorded.Delivery != nil {
			header.DeliveryAddressID = &recorded.Delivery.ID
		}
		order, err = repo.Create(ctx, header)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := repo.CreateLineItems(ctx, s.lineItems(order.ID, input.Items, currency)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		stub := &models.ShippingDetail{
			OrderID:    order.ID,
			TrackingID: placeholderTrackingID(),
			Status:     enums.ShippingStatusProcessing,
		}
		if _, err := repo.CreateShippingDetail(ctx, stub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipping stub")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersPlaced.WithLabelValues(paymentMethod.String()).Inc()
	}
	if s.logg != nil {
		placed := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithField(placed, "payment_method", paymentMethod.String()), "checkout.order_placed")
	}

	committed, err := s.repo.FindOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}

	_ = s.dispatcher.Send(ctx, notifications.TemplateOrderConfirmation, resolution.User.Email, orders.EmailData(committed, resolution.User))

	return &PlaceOrderOutput{
		Order:        committed,
		User:         resolution.User,
		SessionToken: resolution.SessionToken,
	}, nil
}

// reconcileTotals recomputes the subtotal and delivery charge server-side
// and rejects claimed amounts drifting past the tolerance. Tax and discount
// cannot be recomputed here and are recorded as claimed.
func (s *service) reconcileTotals(input PlaceOrderInput, currency enums.Currency, method enums.ShippingMethod) (*ClaimedTotals, error) {
	computedSubtotal := decimal.Zero
	for _, item := range input.Items {
		qty := item.Qty
		if qty <= 0 {
			qty = 1
		}
		computedSubtotal = computedSubtotal.Add(s.unitPrice(item, currency).Mul(decimal.NewFromInt(int64(qty))))
	}
	if computedSubtotal.Sub(input.Totals.Subtotal).Abs().GreaterThan(totalsTolerance) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal does not match the priced cart").
			WithDetails(map[string]string{
				"claimed":  input.Totals.Subtotal.String(),
				"computed": computedSubtotal.String(),
			})
	}

	computedShipping := s.calculator.Compute(shippingItems(input.Items), method, currency)
	if computedShipping.Sub(input.Totals.DeliveryCharge).Abs().GreaterThan(totalsTolerance) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery charge does not match the shipping schedule").
			WithDetails(map[string]string{
				"claimed":  input.Totals.DeliveryCharge.String(),
				"computed": computedShipping.String(),
			})
	}

	if input.Totals.TaxAmount.IsNegative() || input.Totals.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax and discount must not be negative")
	}

	totals := input.Totals
	if totals.total().IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must not be negative")
	}
	return &totals, nil
}

func (t ClaimedTotals) total() decimal.Decimal {
	return t.Subtotal.Add(t.TaxAmount).Add(t.DeliveryCharge).Sub(t.DiscountAmount)
}

func (s *service) unitPrice(item ItemInput, currency enums.Currency) decimal.Decimal {
	if currency == s.baseCurrency {
		return item.LocalUnitPrice
	}
	return item.ForeignUnitPrice
}

func (s *service) lineItems(orderID uuid.UUID, items []ItemInput, currency enums.Currency) []models.OrderLineItem {
	rows := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		qty := item.Qty
		if qty <= 0 {
			qty = 1
		}
		weight := 0
		switch {
		case item.VariantWeightGrams != nil:
			weight = *item.VariantWeightGrams
		case item.UnitWeightGrams != nil:
			weight = *item.UnitWeightGrams
		}
		rows = append(rows, models.OrderLineItem{
			OrderID:         orderID,
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			ProductName:     item.ProductName,
			UnitPrice:       s.unitPrice(item, currency),
			Qty:             qty,
			WeightGrams:     weight,
			VariantSnapshot: item.VariantAttributes,
		})
	}
	return rows
}

func shippingItems(items []ItemInput) []shipping.Item {
	out := make([]shipping.Item, 0, len(items))
	for _, item := range items {
		out = append(out, shipping.Item{
			UnitWeightGrams:    item.UnitWeightGrams,
			VariantWeightGrams: item.VariantWeightGrams,
			Qty:                item.Qty,
		})
	}
	return out
}

func placeholderTrackingID() string {
	return "VY-" + strings.ToUpper(uuid.NewString()[:13])
}
