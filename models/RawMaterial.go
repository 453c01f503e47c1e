package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RawMaterial is a purchasable base ingredient. It is always a leaf of the
// recipe graph and never carries a recipe of its own.
type RawMaterial struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string    `gorm:"size:64;uniqueIndex;not null" json:"product_id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Unit      string    `gorm:"size:32;not null" json:"unit"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *RawMaterial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
