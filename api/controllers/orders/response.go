package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
)

type itemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Qty         int             `json:"qty"`
}

type shippingResponse struct {
	Courier     string     `json:"courier,omitempty"`
	TrackingID  string     `json:"tracking_id"`
	TrackingURL *string    `json:"tracking_url,omitempty"`
	Status      string     `json:"status"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
}

type orderResponse struct {
	ID             uuid.UUID         `json:"id"`
	Currency       string            `json:"currency"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	DeliveryCharge decimal.Decimal   `json:"delivery_charge"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	Total          decimal.Decimal   `json:"total"`
	CouponCode     *string           `json:"coupon_code,omitempty"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentStatus  string            `json:"payment_status"`
	OrderStatus    string            `json:"order_status"`
	Items          []itemResponse    `json:"items"`
	Shipping       *shippingResponse `json:"shipping,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

type createOrderResponse struct {
	Order        orderResponse `json:"order"`
	SessionToken string        `json:"session_token,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:             order.ID,
		Currency:       order.Currency.String(),
		Subtotal:       order.Subtotal,
		TaxAmount:      order.TaxAmount,
		DeliveryCharge: order.DeliveryCharge,
		DiscountAmount: order.DiscountAmount,
		Total:          order.Total,
		CouponCode:     order.CouponCode,
		PaymentMethod:  order.PaymentMethod.String(),
		PaymentStatus:  order.PaymentStatus.String(),
		OrderStatus:    order.OrderStatus.String(),
		Items:          make([]itemResponse, 0, len(order.Items)),
		CreatedAt:      order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, itemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Qty:         item.Qty,
		})
	}
	if order.ShippingDetail != nil {
		resp.Shipping = &shippingResponse{
			Courier:     order.ShippingDetail.Courier,
			TrackingID:  order.ShippingDetail.TrackingID,
			TrackingURL: order.ShippingDetail.TrackingURL,
			Status:      order.ShippingDetail.Status.String(),
			ShippedAt:   order.ShippingDetail.ShippedAt,
		}
	}
	return resp
}
