package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailySalesSummary is one imported sales record. Exactly one of MealID and
// HalfProductID is set, depending on what the product code resolved to.
type DailySalesSummary struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	SaleDate      time.Time       `gorm:"not null;index" json:"sale_date"`
	MealID        *string         `gorm:"type:uuid;index" json:"meal_id,omitempty"`
	HalfProductID *string         `gorm:"type:uuid;index" json:"half_product_id,omitempty"`
	QuantitySold  decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity_sold"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *DailySalesSummary) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
