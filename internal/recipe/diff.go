package recipe

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bistro/models"
)

// ItemInput is one desired recipe line when a parent's recipe is saved.
type ItemInput struct {
	ComponentType string          `json:"component_type"`
	ComponentID   string          `json:"component_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
}

// Validate checks the invariants a stored recipe line must hold.
func (i ItemInput) Validate() error {
	if i.ComponentType != models.ComponentRawMaterial && i.ComponentType != models.ComponentHalfProduct {
		return fmt.Errorf("recipe: component_type must be %s or %s", models.ComponentRawMaterial, models.ComponentHalfProduct)
	}
	if i.ComponentID == "" {
		return fmt.Errorf("recipe: component_id is required")
	}
	if !i.Quantity.IsPositive() {
		return fmt.Errorf("recipe: quantity must be positive")
	}
	if i.Unit == "" {
		return fmt.Errorf("recipe: unit is required")
	}
	return nil
}

// ItemUpdate pairs an existing line with its replacement quantity and unit.
type ItemUpdate struct {
	Existing models.RecipeItem
	Quantity decimal.Decimal
	Unit     string
}

// Plan is the reconciliation of a stored recipe set against a desired one:
// a full replace-by-diff, so omitting a component deletes its line.
type Plan struct {
	Creates []ItemInput
	Updates []ItemUpdate
	Deletes []models.RecipeItem
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// ComponentKey identifies a recipe line by what it references, the identity
// used when reconciling recipe sets.
func ComponentKey(componentType, componentID string) string {
	if componentType == models.ComponentRawMaterial {
		return "RM_" + componentID
	}
	return "HP_" + componentID
}

// DiffItems computes the create/update/delete plan that turns the existing
// recipe set into the incoming one. Lines whose quantity and unit already
// match are left alone.
func DiffItems(existing []models.RecipeItem, incoming []ItemInput) Plan {
	remaining := make(map[string]models.RecipeItem, len(existing))
	for _, item := range existing {
		remaining[ComponentKey(item.ComponentType, item.ComponentID())] = item
	}

	var plan Plan
	for _, input := range incoming {
		key := ComponentKey(input.ComponentType, input.ComponentID)
		current, ok := remaining[key]
		if !ok {
			plan.Creates = append(plan.Creates, input)
			continue
		}
		delete(remaining, key)
		if current.Quantity.Equal(input.Quantity) && current.Unit == input.Unit {
			continue
		}
		plan.Updates = append(plan.Updates, ItemUpdate{
			Existing: current,
			Quantity: input.Quantity,
			Unit:     input.Unit,
		})
	}

	for _, item := range existing {
		key := ComponentKey(item.ComponentType, item.ComponentID())
		if _, ok := remaining[key]; ok {
			plan.Deletes = append(plan.Deletes, item)
		}
	}
	return plan
}
