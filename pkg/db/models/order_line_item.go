package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/types"
)

// OrderLineItem is one priced product entry within an order. Immutable after
// creation; the unit price and variant snapshot are frozen at purchase time
// so later catalog edits do not corrupt historical orders.
type OrderLineItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID       *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	ProductName     string          `gorm:"column:product_name;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Qty             int             `gorm:"column:qty;not null;default:1"`
	WeightGrams     int             `gorm:"column:weight_grams;not null;default:0"`
	VariantSnapshot types.JSONMap   `gorm:"column:variant_snapshot;type:jsonb;serializer:json"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
