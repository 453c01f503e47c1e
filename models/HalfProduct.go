package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HalfProduct is an intermediate product produced in batches. One packaging
// unit of it holds CapacityValue of CapacityUnit (e.g. 1 包 = 500 克), and its
// recipe is defined per single capacity unit. Virtual half products are
// placeholders with no recipe and are never expanded.
type HalfProduct struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID     string          `gorm:"size:64;uniqueIndex;not null" json:"product_id"`
	Name          string          `gorm:"size:255;uniqueIndex;not null" json:"name"`
	ShortName     string          `gorm:"size:64" json:"short_name"`
	Category      string          `gorm:"size:64;not null" json:"category"`
	Supplier      string          `gorm:"size:64" json:"supplier"`
	PackagingUnit string          `gorm:"size:32;not null" json:"packaging_unit"`
	CapacityValue decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"capacity_value"`
	CapacityUnit  string          `gorm:"size:32;not null" json:"capacity_unit"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	IsVirtual     bool            `gorm:"not null;default:false" json:"is_virtual"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (h *HalfProduct) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}
