package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Component type discriminants for RecipeItem.
const (
	ComponentRawMaterial = "RAW_MATERIAL"
	ComponentHalfProduct = "HALF_PRODUCT"
)

// RecipeItem is one line of a recipe. It belongs to exactly one parent and
// references exactly one component.
type RecipeItem struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// --- Parent Link ---
	// One of these will be non-null, the other will be null.
	MealID        *string `gorm:"type:uuid;index" json:"meal_id,omitempty"`
	HalfProductID *string `gorm:"type:uuid;index" json:"half_product_id,omitempty"`

	// Quantity is expressed in Unit, which is the unit convenient for this
	// recipe and may differ from the component's own unit.
	Quantity decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	Unit     string          `gorm:"size:32;not null" json:"unit"`

	// --- Component Link ---
	ComponentType          string  `gorm:"size:16;not null" json:"component_type"`
	RawMaterialID          *string `gorm:"type:uuid" json:"raw_material_id,omitempty"`
	HalfProductComponentID *string `gorm:"type:uuid" json:"half_product_component_id,omitempty"`

	// --- Preloadable Data ---
	// These allow GORM to fetch the component's details.
	RawMaterial          *RawMaterial `gorm:"foreignKey:RawMaterialID" json:"raw_material,omitempty"`
	HalfProductComponent *HalfProduct `gorm:"foreignKey:HalfProductComponentID" json:"half_product_component,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *RecipeItem) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ComponentID returns the id of whichever component the line references.
func (r *RecipeItem) ComponentID() string {
	switch r.ComponentType {
	case ComponentRawMaterial:
		if r.RawMaterialID != nil {
			return *r.RawMaterialID
		}
	case ComponentHalfProduct:
		if r.HalfProductComponentID != nil {
			return *r.HalfProductComponentID
		}
	}
	return ""
}
