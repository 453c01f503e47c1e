// Package store backs the recipe engine's collaborator interfaces with GORM.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistro/internal/recipe"
	"bistro/internal/units"
	"bistro/models"
)

// Store exposes catalog lookups, recipe-line fetches, conversion-rule lookups
// and the transactional recipe reconciliation over one database handle.
type Store struct {
	db *gorm.DB
}

// New wraps a database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Meal fetches a meal by id.
func (s *Store) Meal(ctx context.Context, id string) (models.Meal, error) {
	var meal models.Meal
	if err := s.db.WithContext(ctx).First(&meal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Meal{}, fmt.Errorf("%w: meal %s", recipe.ErrNotFound, id)
		}
		return models.Meal{}, err
	}
	return meal, nil
}

// HalfProduct fetches a half product by id.
func (s *Store) HalfProduct(ctx context.Context, id string) (models.HalfProduct, error) {
	var half models.HalfProduct
	if err := s.db.WithContext(ctx).First(&half, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.HalfProduct{}, fmt.Errorf("%w: half product %s", recipe.ErrNotFound, id)
		}
		return models.HalfProduct{}, err
	}
	return half, nil
}

// RawMaterial fetches a raw material by id.
func (s *Store) RawMaterial(ctx context.Context, id string) (models.RawMaterial, error) {
	var material models.RawMaterial
	if err := s.db.WithContext(ctx).First(&material, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RawMaterial{}, fmt.Errorf("%w: raw material %s", recipe.ErrNotFound, id)
		}
		return models.RawMaterial{}, err
	}
	return material, nil
}

// DirectItems loads the direct recipe lines of a parent with their component
// records preloaded.
func (s *Store) DirectItems(ctx context.Context, parentID string, parentType recipe.ParentType) ([]models.RecipeItem, error) {
	query := s.db.WithContext(ctx).
		Preload("RawMaterial").
		Preload("HalfProductComponent").
		Order("component_type asc, created_at asc")

	switch parentType {
	case recipe.ParentMeal:
		query = query.Where("meal_id = ?", parentID)
	case recipe.ParentHalfProduct:
		query = query.Where("half_product_id = ?", parentID)
	default:
		return nil, fmt.Errorf("%w: %q", recipe.ErrInvalidParentType, parentType)
	}

	var items []models.RecipeItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindRule looks up the stored rate for an ordered unit pair.
func (s *Store) FindRule(ctx context.Context, fromUnit, toUnit string) (decimal.Decimal, error) {
	var rule models.UnitConversion
	err := s.db.WithContext(ctx).
		First(&rule, "from_unit = ? AND to_unit = ?", fromUnit, toUnit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Decimal{}, units.ErrRuleNotFound
		}
		return decimal.Decimal{}, err
	}
	return rule.Rate, nil
}

// ReplaceItems reconciles a parent's stored recipe set against the desired
// one inside a single transaction, so a failed save never leaves the recipe
// half-migrated.
func (s *Store) ReplaceItems(ctx context.Context, parentID string, parentType recipe.ParentType, inputs []recipe.ItemInput) error {
	if parentType != recipe.ParentMeal && parentType != recipe.ParentHalfProduct {
		return fmt.Errorf("%w: %q", recipe.ErrInvalidParentType, parentType)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ReplaceItemsIn(tx, parentID, parentType, inputs)
	})
}

// ReplaceItemsIn applies the recipe diff using the provided transaction.
// Exported so parent create/update flows can run it inside their own
// transaction together with the parent row.
func ReplaceItemsIn(tx *gorm.DB, parentID string, parentType recipe.ParentType, inputs []recipe.ItemInput) error {
	parentColumn := "meal_id"
	if parentType == recipe.ParentHalfProduct {
		parentColumn = "half_product_id"
	}

	var existing []models.RecipeItem
	if err := tx.Where(parentColumn+" = ?", parentID).Find(&existing).Error; err != nil {
		return err
	}

	plan := recipe.DiffItems(existing, inputs)

	for _, input := range plan.Creates {
		item := models.RecipeItem{
			Quantity:      input.Quantity,
			Unit:          input.Unit,
			ComponentType: input.ComponentType,
		}
		componentID := input.ComponentID
		switch input.ComponentType {
		case models.ComponentRawMaterial:
			item.RawMaterialID = &componentID
		case models.ComponentHalfProduct:
			item.HalfProductComponentID = &componentID
		}
		id := parentID
		if parentType == recipe.ParentMeal {
			item.MealID = &id
		} else {
			item.HalfProductID = &id
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
	}

	for _, update := range plan.Updates {
		err := tx.Model(&models.RecipeItem{}).
			Where("id = ?", update.Existing.ID).
			Updates(map[string]any{
				"quantity": update.Quantity,
				"unit":     update.Unit,
			}).Error
		if err != nil {
			return err
		}
	}

	for _, item := range plan.Deletes {
		if err := tx.Delete(&models.RecipeItem{}, "id = ?", item.ID).Error; err != nil {
			return err
		}
	}

	return nil
}
