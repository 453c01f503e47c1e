// Package recipe expands product recipes into flattened raw-material
// requirements and reconciles stored recipe sets.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	applog "bistro/internal/log"
	"bistro/internal/units"
	"bistro/models"
)

// ParentType identifies which catalog a recipe's parent entity lives in.
type ParentType string

const (
	ParentMeal        ParentType = "MEAL"
	ParentHalfProduct ParentType = "HALF_PRODUCT"
)

var (
	// ErrNotFound means the root entity of a computation does not exist.
	ErrNotFound = errors.New("recipe: entity not found")
	// ErrInvalidQuantity rejects non-positive requested quantities before
	// any recursion starts.
	ErrInvalidQuantity = errors.New("recipe: requested quantity must be positive")
	// ErrInvalidParentType rejects unknown parent type tokens.
	ErrInvalidParentType = errors.New("recipe: unknown parent type")
)

// CycleError aborts an expansion whose recipe graph loops back on itself or
// nests deeper than the configured budget.
type CycleError struct {
	ParentType ParentType
	EntityID   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("recipe: cycle suspected at %s %s", e.ParentType, e.EntityID)
}

// ItemStore fetches the direct recipe lines of a parent entity. Component
// structs may be preloaded; the aggregator falls back to the Catalog when
// they are not.
type ItemStore interface {
	DirectItems(ctx context.Context, parentID string, parentType ParentType) ([]models.RecipeItem, error)
}

// Catalog resolves referenced entities by id. Implementations return
// ErrNotFound (wrapped or bare) for missing ids.
type Catalog interface {
	Meal(ctx context.Context, id string) (models.Meal, error)
	HalfProduct(ctx context.Context, id string) (models.HalfProduct, error)
	RawMaterial(ctx context.Context, id string) (models.RawMaterial, error)
}

// Usage is one raw material's share of a computed requirement.
type Usage struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Kind     string          `json:"kind"`
}

// DefaultMaxDepth bounds recipe nesting. Real menus nest two or three levels;
// anything past this indicates a cycle the store failed to prevent.
const DefaultMaxDepth = 32

// Aggregator walks recipe graphs and accumulates base raw-material demand.
// The walk is read-only and sequential; each call owns its accumulator, so
// one Aggregator may serve concurrent requests.
type Aggregator struct {
	items    ItemStore
	catalog  Catalog
	resolver *units.Resolver
	maxDepth int
}

// NewAggregator wires an Aggregator from its collaborators. maxDepth <= 0
// selects DefaultMaxDepth.
func NewAggregator(items ItemStore, catalog Catalog, resolver *units.Resolver, maxDepth int) *Aggregator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Aggregator{items: items, catalog: catalog, resolver: resolver, maxDepth: maxDepth}
}

// walk carries the per-computation state of one expansion.
type walk struct {
	// totals is keyed by raw material id plus unit: contributions that end
	// up in different, unconvertible units stay separate rows rather than
	// being force-merged under one label.
	totals map[string]*Usage
	order  []string
	path   map[string]bool
}

// ComputeUsage expands the recipe of a root entity and returns the total
// demand per raw material, normalized to base units where the unit is
// measurable. requestedUnit is informational at the root: the quantity acts
// as a pure repeat count for the root recipe.
func (a *Aggregator) ComputeUsage(ctx context.Context, rootID string, rootType ParentType, quantity decimal.Decimal, requestedUnit string) ([]Usage, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	switch rootType {
	case ParentMeal:
		if _, err := a.catalog.Meal(ctx, rootID); err != nil {
			return nil, err
		}
	case ParentHalfProduct:
		if _, err := a.catalog.HalfProduct(ctx, rootID); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidParentType, rootType)
	}

	w := &walk{
		totals: make(map[string]*Usage),
		path:   make(map[string]bool),
	}

	if err := a.expand(ctx, w, rootID, rootType, quantity, 0); err != nil {
		return nil, err
	}

	a.normalize(ctx, w)

	result := make([]Usage, 0, len(w.order))
	for _, key := range w.order {
		result = append(result, *w.totals[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Unit < result[j].Unit
	})
	return result, nil
}

// expand fetches a parent's direct recipe lines and processes each with the
// running multiplier. The path set fails the walk closed on cycles; the
// store cannot structurally forbid them.
func (a *Aggregator) expand(ctx context.Context, w *walk, parentID string, parentType ParentType, multiplier decimal.Decimal, depth int) error {
	if depth > a.maxDepth {
		return &CycleError{ParentType: parentType, EntityID: parentID}
	}

	pathKey := string(parentType) + ":" + parentID
	if w.path[pathKey] {
		return &CycleError{ParentType: parentType, EntityID: parentID}
	}
	w.path[pathKey] = true
	defer delete(w.path, pathKey)

	items, err := a.items.DirectItems(ctx, parentID, parentType)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := a.process(ctx, w, item, multiplier, depth); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) process(ctx context.Context, w *walk, item models.RecipeItem, multiplier decimal.Decimal, depth int) error {
	needed := item.Quantity.Mul(multiplier)

	switch item.ComponentType {
	case models.ComponentRawMaterial:
		return a.accumulateRawMaterial(ctx, w, item, needed)
	case models.ComponentHalfProduct:
		return a.expandHalfProduct(ctx, w, item, needed, depth)
	default:
		applog.Error(ctx, "recipe item has unknown component type",
			"recipeItemID", item.ID, "componentType", item.ComponentType)
		return nil
	}
}

func (a *Aggregator) accumulateRawMaterial(ctx context.Context, w *walk, item models.RecipeItem, needed decimal.Decimal) error {
	material := item.RawMaterial
	if material == nil {
		if item.RawMaterialID == nil {
			applog.Error(ctx, "recipe item missing raw material reference", "recipeItemID", item.ID)
			return nil
		}
		fetched, err := a.catalog.RawMaterial(ctx, *item.RawMaterialID)
		if err != nil {
			return err
		}
		material = &fetched
	}

	quantity := needed
	unit := material.Unit

	converted, err := a.resolver.Convert(ctx, needed, item.Unit, material.Unit)
	if err != nil {
		var convErr *units.ConversionError
		if !errors.As(err, &convErr) {
			return err
		}
		// No rate path: carry the contribution in the recipe's own unit
		// instead of failing the whole report over one bad pair.
		applog.Warn(ctx, "raw material kept in recipe unit, no conversion path",
			"rawMaterial", material.Name, "fromUnit", item.Unit, "toUnit", material.Unit)
		unit = item.Unit
	} else {
		quantity = converted
	}

	w.add(Usage{
		ID:       material.ID,
		Name:     material.Name,
		Quantity: quantity,
		Unit:     unit,
		Kind:     models.ComponentRawMaterial,
	})
	return nil
}

func (a *Aggregator) expandHalfProduct(ctx context.Context, w *walk, item models.RecipeItem, needed decimal.Decimal, depth int) error {
	half := item.HalfProductComponent
	if half == nil {
		if item.HalfProductComponentID == nil {
			applog.Error(ctx, "recipe item missing half product reference", "recipeItemID", item.ID)
			return nil
		}
		fetched, err := a.catalog.HalfProduct(ctx, *item.HalfProductComponentID)
		if err != nil {
			return err
		}
		half = &fetched
	}

	if half.IsVirtual {
		applog.Debug(ctx, "virtual half product not expanded", "halfProduct", half.Name)
		return nil
	}

	inCapacityUnit, err := a.resolver.Convert(ctx, needed, item.Unit, half.CapacityUnit)
	if err != nil {
		var convErr *units.ConversionError
		if !errors.As(err, &convErr) {
			return err
		}
		applog.Warn(ctx, "half product demand kept in recipe unit, no conversion path",
			"halfProduct", half.Name, "fromUnit", item.Unit, "toUnit", half.CapacityUnit)
		inCapacityUnit = needed
	}

	if !half.CapacityValue.IsPositive() {
		// Zero yield, not division by zero. The sub-recipe would contribute
		// nothing either way, so skip it and flag the data problem.
		applog.Warn(ctx, "half product has degenerate capacity, contributing zero",
			"halfProduct", half.Name, "capacityValue", half.CapacityValue.String())
		return nil
	}

	subMultiplier := inCapacityUnit.Div(half.CapacityValue)
	if subMultiplier.IsZero() {
		return nil
	}

	return a.expand(ctx, w, half.ID, ParentHalfProduct, subMultiplier, depth+1)
}

// normalize folds measurable entries onto their dimension's base unit. A
// missing rate degrades to the unnormalized entry; the walk already chose to
// keep going over incomplete rule data.
func (a *Aggregator) normalize(ctx context.Context, w *walk) {
	normalized := make(map[string]*Usage, len(w.totals))
	order := make([]string, 0, len(w.order))

	for _, key := range w.order {
		entry := w.totals[key]
		quantity, unit, err := a.resolver.Normalize(ctx, entry.Quantity, entry.Unit)
		if err != nil {
			applog.Warn(ctx, "usage entry left unnormalized, no conversion path",
				"rawMaterial", entry.Name, "unit", entry.Unit)
		} else {
			entry.Quantity = quantity
			entry.Unit = unit
		}

		newKey := entry.ID + "|" + entry.Unit
		if existing, ok := normalized[newKey]; ok {
			existing.Quantity = existing.Quantity.Add(entry.Quantity)
			continue
		}
		normalized[newKey] = entry
		order = append(order, newKey)
	}

	w.totals = normalized
	w.order = order
}

func (w *walk) add(u Usage) {
	key := u.ID + "|" + u.Unit
	if existing, ok := w.totals[key]; ok {
		existing.Quantity = existing.Quantity.Add(u.Quantity)
		return
	}
	w.totals[key] = &u
	w.order = append(w.order, key)
}
