package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Country is a lookup row used when recording addresses.
type Country struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name    string    `gorm:"column:name;not null;uniqueIndex:idx_countries_name"`
	Code    string    `gorm:"column:code;not null"`
	Regions []Region  `gorm:"foreignKey:CountryID;constraint:OnDelete:CASCADE"`
}

func (c *Country) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Region is a state/province lookup row scoped to one country.
type Region struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CountryID uuid.UUID `gorm:"column:country_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
}

func (r *Region) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
