package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a purchasing counterparty scoped to one business.
type Supplier struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	Email      *string   `gorm:"column:email"`
	Phone      *string   `gorm:"column:phone"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (Supplier) TableName() string { return "suppliers" }
