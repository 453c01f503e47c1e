package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meal is a finished product as it appears on the menu.
type Meal struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID          string    `gorm:"size:64;uniqueIndex;not null" json:"product_id"`
	Name               string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	MenuCategory       string    `gorm:"size:64;not null" json:"menu_category"`
	MenuClassification string    `gorm:"size:64;not null" json:"menu_classification"`
	MealType           string    `gorm:"size:64;not null" json:"meal_type"`
	IsActive           bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Meal) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
