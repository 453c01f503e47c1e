package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistro/internal/recipe"
	"bistro/models"
)

// seedKitchen loads a small catalog: a soup base half product whose recipe is
// defined per 克 of yield, and the materials everything references.
func seedKitchen(t *testing.T, db *gorm.DB) (models.Meal, models.HalfProduct, models.RawMaterial, models.RawMaterial) {
	t.Helper()

	beef := models.RawMaterial{ProductID: "R001", Name: "牛腱", Unit: "克", IsActive: true}
	noodle := models.RawMaterial{ProductID: "R002", Name: "拉麵", Unit: "克", IsActive: true}
	for _, m := range []*models.RawMaterial{&beef, &noodle} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("failed to seed raw material: %v", err)
		}
	}

	soup := models.HalfProduct{
		ProductID:     "H001",
		Name:          "紅燒牛肉湯底",
		Category:      "湯底",
		PackagingUnit: "包",
		CapacityValue: decimal.NewFromInt(500),
		CapacityUnit:  "克",
		IsActive:      true,
	}
	if err := db.Create(&soup).Error; err != nil {
		t.Fatalf("failed to seed half product: %v", err)
	}
	soupLine := models.RecipeItem{
		HalfProductID: &soup.ID,
		ComponentType: models.ComponentRawMaterial,
		RawMaterialID: &beef.ID,
		Quantity:      decimal.RequireFromString("0.4"),
		Unit:          "克",
	}
	if err := db.Create(&soupLine).Error; err != nil {
		t.Fatalf("failed to seed soup recipe: %v", err)
	}

	meal := models.Meal{ProductID: "M001", Name: "紅燒牛肉麵", MenuCategory: "麵類", MenuClassification: "主餐", MealType: "內用", IsActive: true}
	if err := db.Create(&meal).Error; err != nil {
		t.Fatalf("failed to seed meal: %v", err)
	}
	mealLines := []models.RecipeItem{
		{
			MealID:                 &meal.ID,
			ComponentType:          models.ComponentHalfProduct,
			HalfProductComponentID: &soup.ID,
			Quantity:               decimal.NewFromInt(600),
			Unit:                   "克",
		},
		{
			MealID:        &meal.ID,
			ComponentType: models.ComponentRawMaterial,
			RawMaterialID: &noodle.ID,
			Quantity:      decimal.NewFromInt(180),
			Unit:          "克",
		},
	}
	for i := range mealLines {
		if err := db.Create(&mealLines[i]).Error; err != nil {
			t.Fatalf("failed to seed meal recipe: %v", err)
		}
	}

	return meal, soup, beef, noodle
}

func TestMealCreateWithRecipeItems(t *testing.T) {
	db := setupHandlers(t)
	material := models.RawMaterial{ProductID: "R001", Name: "拉麵", Unit: "克", IsActive: true}
	if err := db.Create(&material).Error; err != nil {
		t.Fatalf("failed to seed raw material: %v", err)
	}

	body := `{
		"product_id": "M001",
		"name": "陽春麵",
		"menu_category": "麵類",
		"menu_classification": "主餐",
		"meal_type": "內用",
		"recipe_items": [
			{"component_type": "RAW_MATERIAL", "component_id": "` + material.ID + `", "quantity": 180, "unit": "克"}
		]
	}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/meals", strings.NewReader(body))
	MealResource(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created models.Meal
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	var count int64
	if err := db.Model(&models.RecipeItem{}).Where("meal_id = ?", created.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count recipe items: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one recipe line, got %d", count)
	}
}

func TestMealUsageExpandsRecipe(t *testing.T) {
	db := setupHandlers(t)
	meal, _, beef, noodle := seedKitchen(t, db)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/meals/"+meal.ID+"/usage?quantity=2&unit=份", nil)
	MealResource(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var usages []recipe.Usage
	if err := json.NewDecoder(rr.Body).Decode(&usages); err != nil {
		t.Fatalf("failed to decode usage response: %v", err)
	}
	if len(usages) != 2 {
		t.Fatalf("expected two usage rows, got %+v", usages)
	}

	byID := make(map[string]recipe.Usage, len(usages))
	for _, u := range usages {
		byID[u.ID] = u
	}
	// Soup demand: 600*2 = 1200 克 of yield against a 500 克 batch gives a
	// 2.4 multiplier, so the 0.4 克 beef line contributes 0.96 克.
	if got := byID[beef.ID]; !got.Quantity.Equal(decimal.RequireFromString("0.96")) || got.Unit != "克" {
		t.Fatalf("beef usage = %s %s, want 0.96 克", got.Quantity, got.Unit)
	}
	if got := byID[noodle.ID]; !got.Quantity.Equal(decimal.NewFromInt(360)) || got.Unit != "克" {
		t.Fatalf("noodle usage = %s %s, want 360 克", got.Quantity, got.Unit)
	}
}

func TestMealUsageRequiresQueryParams(t *testing.T) {
	db := setupHandlers(t)
	meal, _, _, _ := seedKitchen(t, db)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/meals/"+meal.ID+"/usage", nil)
	MealResource(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without params, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/meals/"+meal.ID+"/usage?quantity=-1&unit=份", nil)
	MealResource(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative quantity, got %d", rr.Code)
	}
}

func TestMealUsageMissingMeal(t *testing.T) {
	setupHandlers(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/meals/00000000-0000-0000-0000-000000000000/usage?quantity=1&unit=份", nil)
	MealResource(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMealUsageReportsCycle(t *testing.T) {
	db := setupHandlers(t)

	a := models.HalfProduct{ProductID: "H001", Name: "A", Category: "湯", PackagingUnit: "包", CapacityValue: decimal.NewFromInt(1), CapacityUnit: "克", IsActive: true}
	b := models.HalfProduct{ProductID: "H002", Name: "B", Category: "湯", PackagingUnit: "包", CapacityValue: decimal.NewFromInt(1), CapacityUnit: "克", IsActive: true}
	for _, h := range []*models.HalfProduct{&a, &b} {
		if err := db.Create(h).Error; err != nil {
			t.Fatalf("failed to seed half product: %v", err)
		}
	}
	lines := []models.RecipeItem{
		{HalfProductID: &a.ID, ComponentType: models.ComponentHalfProduct, HalfProductComponentID: &b.ID, Quantity: decimal.NewFromInt(1), Unit: "克"},
		{HalfProductID: &b.ID, ComponentType: models.ComponentHalfProduct, HalfProductComponentID: &a.ID, Quantity: decimal.NewFromInt(1), Unit: "克"},
	}
	for i := range lines {
		if err := db.Create(&lines[i]).Error; err != nil {
			t.Fatalf("failed to seed recipe line: %v", err)
		}
	}
	meal := models.Meal{ProductID: "M001", Name: "循環餐", MenuCategory: "麵類", MenuClassification: "主餐", MealType: "內用", IsActive: true}
	if err := db.Create(&meal).Error; err != nil {
		t.Fatalf("failed to seed meal: %v", err)
	}
	link := models.RecipeItem{MealID: &meal.ID, ComponentType: models.ComponentHalfProduct, HalfProductComponentID: &a.ID, Quantity: decimal.NewFromInt(1), Unit: "克"}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("failed to seed recipe line: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/meals/"+meal.ID+"/usage?quantity=1&unit=份", nil)
	MealResource(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for cyclic recipe, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMealRecipePutReconciles(t *testing.T) {
	db := setupHandlers(t)
	meal, _, beef, noodle := seedKitchen(t, db)

	// Replace the whole set: keep the noodles at a new quantity, add beef
	// directly, drop the soup line.
	body := `[
		{"component_type": "RAW_MATERIAL", "component_id": "` + noodle.ID + `", "quantity": 200, "unit": "克"},
		{"component_type": "RAW_MATERIAL", "component_id": "` + beef.ID + `", "quantity": 50, "unit": "克"}
	]`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/meals/"+meal.ID+"/recipe", strings.NewReader(body))
	MealResource(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var saved []models.RecipeItem
	if err := json.NewDecoder(rr.Body).Decode(&saved); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected two recipe lines after reconciliation, got %d", len(saved))
	}
	for _, item := range saved {
		if item.ComponentType != models.ComponentRawMaterial {
			t.Fatalf("expected only raw material lines, got %+v", item)
		}
	}
}

func TestMealRecipePutValidatesLines(t *testing.T) {
	db := setupHandlers(t)
	meal, _, beef, _ := seedKitchen(t, db)

	body := `[{"component_type": "RAW_MATERIAL", "component_id": "` + beef.ID + `", "quantity": 0, "unit": "克"}]`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/meals/"+meal.ID+"/recipe", strings.NewReader(body))
	MealResource(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", rr.Code)
	}
}

func TestMealDeleteRemovesRecipeLines(t *testing.T) {
	db := setupHandlers(t)
	meal, _, _, _ := seedKitchen(t, db)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/meals/"+meal.ID, nil)
	MealResource(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	var count int64
	if err := db.Model(&models.RecipeItem{}).Where("meal_id = ?", meal.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count recipe items: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected meal recipe lines to be gone, found %d", count)
	}
}
