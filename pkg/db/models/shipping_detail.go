package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
)

// ShippingDetail is the at-most-one fulfillment record attached to an order.
// ShippedAt stays nil until the order is dispatched.
type ShippingDetail struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_shipping_details_order"`
	Courier     string               `gorm:"column:courier;not null;default:''"`
	TrackingID  string               `gorm:"column:tracking_id;not null"`
	TrackingURL *string              `gorm:"column:tracking_url"`
	Status      enums.ShippingStatus `gorm:"column:status;type:text;not null;default:'processing'"`
	ShippedAt   *time.Time           `gorm:"column:shipped_at"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *ShippingDetail) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
