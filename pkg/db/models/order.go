package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	"github.com/meghshyam-labs/vyapar-backend/pkg/types"
)

// Order is the header record produced by checkout. Amounts are rupees with
// two decimal places; Total = Subtotal(with tax) + DeliveryCharge - Discount,
// fixed at creation and never re-derived.
type Order struct {
	ID                  uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	BillingAddressID    uuid.UUID                  `gorm:"column:billing_address_id;type:uuid;not null"`
	DeliveryAddressID   *uuid.UUID                 `gorm:"column:delivery_address_id;type:uuid"`
	Currency            enums.Currency             `gorm:"column:currency;type:text;not null;default:'INR'"`
	Subtotal            decimal.Decimal            `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount           decimal.Decimal            `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DeliveryCharge      decimal.Decimal            `gorm:"column:delivery_charge;type:numeric(12,2);not null"`
	DiscountAmount      decimal.Decimal            `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Total               decimal.Decimal            `gorm:"column:total;type:numeric(12,2);not null"`
	CouponCode          *string                    `gorm:"column:coupon_code"`
	Notes               *string                    `gorm:"column:notes"`
	PaymentMethod       enums.PaymentMethod        `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus       enums.PaymentStatus        `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	OrderStatus         enums.OrderStatus          `gorm:"column:order_status;type:text;not null;default:'placed'"`
	GatewayOrderID      *string                    `gorm:"column:gateway_order_id;index"`
	PaymentVerification *types.PaymentVerification `gorm:"column:payment_verification;type:jsonb;serializer:json"`
	Items               []OrderLineItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingDetail      *ShippingDetail            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
