package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "bistro/internal/log"
	"bistro/internal/recipe"
	"bistro/internal/store"
	"bistro/models"
)

type halfProductRequest struct {
	ProductID     string             `json:"product_id"`
	Name          string             `json:"name"`
	ShortName     string             `json:"short_name"`
	Category      string             `json:"category"`
	Supplier      string             `json:"supplier"`
	PackagingUnit string             `json:"packaging_unit"`
	CapacityValue decimal.Decimal    `json:"capacity_value"`
	CapacityUnit  string             `json:"capacity_unit"`
	IsActive      *bool              `json:"is_active"`
	IsVirtual     bool               `json:"is_virtual"`
	RecipeItems   []recipe.ItemInput `json:"recipe_items"`
}

// HalfProductResource handles REST-style interactions for half products,
// including the recipe and usage subresources.
func HalfProductResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "half product request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/half-products")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listHalfProducts(w, r)
		case http.MethodPost:
			createHalfProduct(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	halfProductID := segments[0]

	if len(segments) > 1 {
		switch segments[1] {
		case "usage", "total-ingredients":
			serveUsage(w, r, halfProductID, recipe.ParentHalfProduct)
		case "recipe":
			serveRecipeSet(w, r, halfProductID, recipe.ParentHalfProduct)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showHalfProduct(w, r, halfProductID)
	case http.MethodPut:
		updateHalfProduct(w, r, halfProductID)
	case http.MethodDelete:
		deleteHalfProduct(w, r, halfProductID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listHalfProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var halves []models.HalfProduct
	if err := database.WithContext(ctx).Order("name asc").Find(&halves).Error; err != nil {
		applog.Error(ctx, "failed to list half products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load half products")
		return
	}
	writeJSON(w, http.StatusOK, halves)
}

type halfProductDetailResponse struct {
	models.HalfProduct
	RecipeItems []models.RecipeItem `json:"recipe_items"`
}

func showHalfProduct(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var half models.HalfProduct
	if err := database.WithContext(ctx).First(&half, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load half product", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load half product")
		return
	}

	items, err := catalog.DirectItems(ctx, half.ID, recipe.ParentHalfProduct)
	if err != nil {
		applog.Error(ctx, "failed to load half product recipe", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load half product recipe")
		return
	}

	writeJSON(w, http.StatusOK, halfProductDetailResponse{HalfProduct: half, RecipeItems: items})
}

func createHalfProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload halfProductRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid half product create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateHalfProductPayload(payload); err != nil {
		applog.Debug(ctx, "half product validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := halfProductIdentityTaken(r, payload, "")
	if err != nil {
		applog.Error(ctx, "failed to check half product uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create half product")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "a half product with this product code or name already exists")
		return
	}

	half := models.HalfProduct{
		ProductID:     strings.TrimSpace(payload.ProductID),
		Name:          strings.TrimSpace(payload.Name),
		ShortName:     strings.TrimSpace(payload.ShortName),
		Category:      strings.TrimSpace(payload.Category),
		Supplier:      strings.TrimSpace(payload.Supplier),
		PackagingUnit: strings.TrimSpace(payload.PackagingUnit),
		CapacityValue: payload.CapacityValue,
		CapacityUnit:  strings.TrimSpace(payload.CapacityUnit),
		IsActive:      payload.IsActive == nil || *payload.IsActive,
		IsVirtual:     payload.IsVirtual,
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&half).Error; err != nil {
			return err
		}
		// Virtual half products carry no recipe of their own.
		if !half.IsVirtual && len(payload.RecipeItems) > 0 {
			return store.ReplaceItemsIn(tx, half.ID, recipe.ParentHalfProduct, payload.RecipeItems)
		}
		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to create half product", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create half product")
		return
	}

	writeJSON(w, http.StatusCreated, half)
}

func updateHalfProduct(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var existing models.HalfProduct
	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load half product for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load half product")
		return
	}

	var payload halfProductRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid half product update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateHalfProductPayload(payload); err != nil {
		applog.Debug(ctx, "half product update validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := halfProductIdentityTaken(r, payload, existing.ID)
	if err != nil {
		applog.Error(ctx, "failed to check half product uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to update half product")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "a half product with this product code or name already exists")
		return
	}

	updates := map[string]any{
		"product_id":     strings.TrimSpace(payload.ProductID),
		"name":           strings.TrimSpace(payload.Name),
		"short_name":     strings.TrimSpace(payload.ShortName),
		"category":       strings.TrimSpace(payload.Category),
		"supplier":       strings.TrimSpace(payload.Supplier),
		"packaging_unit": strings.TrimSpace(payload.PackagingUnit),
		"capacity_value": payload.CapacityValue,
		"capacity_unit":  strings.TrimSpace(payload.CapacityUnit),
		"is_virtual":     payload.IsVirtual,
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		if payload.IsVirtual {
			// A product that became virtual sheds any recipe it had.
			return store.ReplaceItemsIn(tx, existing.ID, recipe.ParentHalfProduct, nil)
		}
		if payload.RecipeItems != nil {
			return store.ReplaceItemsIn(tx, existing.ID, recipe.ParentHalfProduct, payload.RecipeItems)
		}
		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to update half product", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update half product")
		return
	}

	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		applog.Error(ctx, "failed to reload updated half product", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load half product")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

func deleteHalfProduct(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Drop lines where it is the parent, then lines where it is the
		// component, then the product itself.
		if err := tx.Delete(&models.RecipeItem{}, "half_product_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.RecipeItem{}, "half_product_component_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.HalfProduct{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to delete half product", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete half product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateHalfProductPayload(payload halfProductRequest) error {
	if strings.TrimSpace(payload.ProductID) == "" {
		return errors.New("product_id is required")
	}
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(payload.Category) == "" {
		return errors.New("category is required")
	}
	if strings.TrimSpace(payload.PackagingUnit) == "" {
		return errors.New("packaging_unit is required")
	}
	if strings.TrimSpace(payload.CapacityUnit) == "" {
		return errors.New("capacity_unit is required")
	}
	if payload.CapacityValue.IsNegative() {
		return errors.New("capacity_value must not be negative")
	}
	if payload.IsVirtual && len(payload.RecipeItems) > 0 {
		return errors.New("a virtual half product cannot have recipe items")
	}
	for _, item := range payload.RecipeItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func halfProductIdentityTaken(r *http.Request, payload halfProductRequest, excludeID string) (bool, error) {
	query := database.WithContext(r.Context()).Model(&models.HalfProduct{}).
		Where("product_id = ? OR name = ?", strings.TrimSpace(payload.ProductID), strings.TrimSpace(payload.Name))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
