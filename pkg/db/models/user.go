package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the purchaser identity behind every order. Guest checkouts create
// one too so an order always has exactly one owning account.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	// Uniqueness lives in the migration as an index on lower(email); a
	// column tag cannot express the case-insensitive merge key.
	Email        string    `gorm:"column:email;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Phone        *string   `gorm:"column:phone"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	Addresses    []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
