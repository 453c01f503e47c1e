package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitConversion is a directed conversion rule: a quantity in FromUnit times
// Rate yields the quantity in ToUnit. At most one rule exists per ordered
// pair, and the reverse rule is never derived automatically.
type UnitConversion struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	FromUnit  string          `gorm:"size:32;not null;uniqueIndex:idx_unit_conversions_pair" json:"from_unit"`
	ToUnit    string          `gorm:"size:32;not null;uniqueIndex:idx_unit_conversions_pair" json:"to_unit"`
	Rate      decimal.Decimal `gorm:"type:decimal(16,6);not null" json:"rate"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *UnitConversion) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
