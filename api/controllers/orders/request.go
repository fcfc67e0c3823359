package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meghshyam-labs/vyapar-backend/internal/address"
	"github.com/meghshyam-labs/vyapar-backend/internal/checkout"
	"github.com/meghshyam-labs/vyapar-backend/internal/identity"
	"github.com/meghshyam-labs/vyapar-backend/pkg/types"
)

type addressPayload struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2"`
	City       string  `json:"city" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Phone      *string `json:"phone"`
	Country    string  `json:"country" validate:"required"`
	Region     string  `json:"region" validate:"required"`
}

type itemPayload struct {
	ProductID          string          `json:"product_id" validate:"required,uuid"`
	VariantID          *string         `json:"variant_id" validate:"omitempty,uuid"`
	Name               string          `json:"name" validate:"required"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	ForeignUnitPrice   decimal.Decimal `json:"foreign_unit_price"`
	Qty                int             `json:"qty"`
	WeightGrams        *int            `json:"weight_grams"`
	VariantWeightGrams *int            `json:"variant_weight_grams"`
	VariantAttributes  types.JSONMap   `json:"variant_attributes"`
}

type createOrderRequest struct {
	AccountID     *string `json:"account_id" validate:"omitempty,uuid"`
	Email         string  `json:"email" validate:"required,email"`
	FirstName     string  `json:"first_name" validate:"required"`
	LastName      string  `json:"last_name"`
	Phone         *string `json:"phone"`
	CreateAccount bool    `json:"create_account"`
	Password      string  `json:"password" validate:"omitempty,min=8"`

	Billing  addressPayload  `json:"billing"`
	Delivery *addressPayload `json:"delivery"`

	Items []itemPayload `json:"items" validate:"required,min=1,dive"`

	Currency       string  `json:"currency" validate:"required"`
	ShippingMethod string  `json:"shipping_method" validate:"required,oneof=standard expedited"`
	PaymentMethod  string  `json:"payment_method" validate:"required"`
	CouponCode     *string `json:"coupon_code"`
	Notes          *string `json:"notes"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type addTrackingRequest struct {
	Courier     string  `json:"courier" validate:"required"`
	TrackingID  string  `json:"tracking_id" validate:"required"`
	TrackingURL *string `json:"tracking_url"`
}

func (req createOrderRequest) toInput() (checkout.PlaceOrderInput, error) {
	customer := identity.ResolveInput{
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		CreateAccount: req.CreateAccount,
		Password:      req.Password,
	}
	if req.AccountID != nil && *req.AccountID != "" {
		id, err := uuid.Parse(*req.AccountID)
		if err != nil {
			return checkout.PlaceOrderInput{}, err
		}
		customer.AccountID = &id
	}

	items := make([]checkout.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return checkout.PlaceOrderInput{}, err
		}
		entry := checkout.ItemInput{
			ProductID:          productID,
			ProductName:        item.Name,
			LocalUnitPrice:     item.UnitPrice,
			ForeignUnitPrice:   item.ForeignUnitPrice,
			Qty:                item.Qty,
			UnitWeightGrams:    item.WeightGrams,
			VariantWeightGrams: item.VariantWeightGrams,
			VariantAttributes:  item.VariantAttributes,
		}
		if item.VariantID != nil && *item.VariantID != "" {
			variantID, err := uuid.Parse(*item.VariantID)
			if err != nil {
				return checkout.PlaceOrderInput{}, err
			}
			entry.VariantID = &variantID
		}
		items = append(items, entry)
	}

	input := checkout.PlaceOrderInput{
		Customer:       customer,
		Billing:        req.Billing.toInput(),
		Items:          items,
		Currency:       req.Currency,
		ShippingMethod: req.ShippingMethod,
		PaymentMethod:  req.PaymentMethod,
		CouponCode:     req.CouponCode,
		Notes:          req.Notes,
		Totals: checkout.ClaimedTotals{
			Subtotal:       req.Subtotal,
			TaxAmount:      req.TaxAmount,
			DeliveryCharge: req.DeliveryCharge,
			DiscountAmount: req.DiscountAmount,
		},
	}
	if req.Delivery != nil {
		delivery := req.Delivery.toInput()
		input.Delivery = &delivery
	}
	return input, nil
}

func (p addressPayload) toInput() address.Input {
	return address.Input{
		Line1:      p.Line1,
		Line2:      p.Line2,
		City:       p.City,
		PostalCode: p.PostalCode,
		Phone:      p.Phone,
		Country:    p.Country,
		Region:     p.Region,
	}
}
