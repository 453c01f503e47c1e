package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "bistro/internal/log"
	"bistro/internal/recipe"
	"bistro/internal/store"
	"bistro/models"
)

type mealRequest struct {
	ProductID          string             `json:"product_id"`
	Name               string             `json:"name"`
	MenuCategory       string             `json:"menu_category"`
	MenuClassification string             `json:"menu_classification"`
	MealType           string             `json:"meal_type"`
	IsActive           *bool              `json:"is_active"`
	RecipeItems        []recipe.ItemInput `json:"recipe_items"`
}

// MealResource handles REST-style interactions for meals, including the
// recipe and usage subresources.
func MealResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "meal request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/meals")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listMeals(w, r)
		case http.MethodPost:
			createMeal(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	mealID := segments[0]

	if len(segments) > 1 {
		switch segments[1] {
		case "usage", "total-ingredients":
			serveUsage(w, r, mealID, recipe.ParentMeal)
		case "recipe":
			serveRecipeSet(w, r, mealID, recipe.ParentMeal)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showMeal(w, r, mealID)
	case http.MethodPut:
		updateMeal(w, r, mealID)
	case http.MethodDelete:
		deleteMeal(w, r, mealID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listMeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var meals []models.Meal
	if err := database.WithContext(ctx).Order("name asc").Find(&meals).Error; err != nil {
		applog.Error(ctx, "failed to list meals", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load meals")
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

type mealDetailResponse struct {
	models.Meal
	RecipeItems []models.RecipeItem `json:"recipe_items"`
}

func showMeal(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var meal models.Meal
	if err := database.WithContext(ctx).First(&meal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load meal", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load meal")
		return
	}

	items, err := catalog.DirectItems(ctx, meal.ID, recipe.ParentMeal)
	if err != nil {
		applog.Error(ctx, "failed to load meal recipe", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load meal recipe")
		return
	}

	writeJSON(w, http.StatusOK, mealDetailResponse{Meal: meal, RecipeItems: items})
}

func createMeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload mealRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid meal create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateMealPayload(payload); err != nil {
		applog.Debug(ctx, "meal validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := mealIdentityTaken(r, payload, "")
	if err != nil {
		applog.Error(ctx, "failed to check meal uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create meal")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "a meal with this product code or name already exists")
		return
	}

	meal := models.Meal{
		ProductID:          strings.TrimSpace(payload.ProductID),
		Name:               strings.TrimSpace(payload.Name),
		MenuCategory:       strings.TrimSpace(payload.MenuCategory),
		MenuClassification: strings.TrimSpace(payload.MenuClassification),
		MealType:           strings.TrimSpace(payload.MealType),
		IsActive:           payload.IsActive == nil || *payload.IsActive,
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&meal).Error; err != nil {
			return err
		}
		if len(payload.RecipeItems) > 0 {
			return store.ReplaceItemsIn(tx, meal.ID, recipe.ParentMeal, payload.RecipeItems)
		}
		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to create meal", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create meal")
		return
	}

	writeJSON(w, http.StatusCreated, meal)
}

func updateMeal(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var existing models.Meal
	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load meal for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load meal")
		return
	}

	var payload mealRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid meal update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateMealPayload(payload); err != nil {
		applog.Debug(ctx, "meal update validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := mealIdentityTaken(r, payload, existing.ID)
	if err != nil {
		applog.Error(ctx, "failed to check meal uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to update meal")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "a meal with this product code or name already exists")
		return
	}

	updates := map[string]any{
		"product_id":          strings.TrimSpace(payload.ProductID),
		"name":                strings.TrimSpace(payload.Name),
		"menu_category":       strings.TrimSpace(payload.MenuCategory),
		"menu_classification": strings.TrimSpace(payload.MenuClassification),
		"meal_type":           strings.TrimSpace(payload.MealType),
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		if payload.RecipeItems != nil {
			return store.ReplaceItemsIn(tx, existing.ID, recipe.ParentMeal, payload.RecipeItems)
		}
		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to update meal", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update meal")
		return
	}

	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		applog.Error(ctx, "failed to reload updated meal", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load meal")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

func deleteMeal(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RecipeItem{}, "meal_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Meal{}, "id = ?", id)
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
		applog.Error(ctx, "failed to delete meal", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete meal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateMealPayload(payload mealRequest) error {
	if strings.TrimSpace(payload.ProductID) == "" {
		return errors.New("product_id is required")
	}
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(payload.MenuCategory) == "" {
		return errors.New("menu_category is required")
	}
	if strings.TrimSpace(payload.MenuClassification) == "" {
		return errors.New("menu_classification is required")
	}
	if strings.TrimSpace(payload.MealType) == "" {
		return errors.New("meal_type is required")
	}
	for _, item := range payload.RecipeItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func mealIdentityTaken(r *http.Request, payload mealRequest, excludeID string) (bool, error) {
	query := database.WithContext(r.Context()).Model(&models.Meal{}).
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
