package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
)

// Address is a billing or delivery address owned by one user. More than one
// default per kind is tolerated; the latest write wins at read time.
type Address struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Kind       enums.AddressKind `gorm:"column:kind;type:text;not null;default:'billing'"`
	Line1      string            `gorm:"column:line1;not null"`
	Line2      *string           `gorm:"column:line2"`
	City       string            `gorm:"column:city;not null"`
	PostalCode string            `gorm:"column:postal_code;not null"`
	Phone      *string           `gorm:"column:phone"`
	CountryID  uuid.UUID         `gorm:"column:country_id;type:uuid;not null"`
	RegionID   uuid.UUID         `gorm:"column:region_id;type:uuid;not null"`
	IsDefault  bool              `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
