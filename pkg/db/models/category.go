package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups catalog products inside one business.
type Category struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (Category) TableName() string { return "categories" }
