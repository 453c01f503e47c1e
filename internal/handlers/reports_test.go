package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/recipe"
	"bistro/models"
)

func TestSalesImportBestEffort(t *testing.T) {
	db := setupHandlers(t)
	meal, _, _, _ := seedKitchen(t, db)

	body := `[
		{"sale_date": "2026-08-01", "product_id": "M001", "quantity": 12},
		{"sale_date": "2026-08-01", "product_id": "NOPE", "quantity": 3},
		{"sale_date": "bad-date", "product_id": "M001", "quantity": 1},
		{"sale_date": "2026-08-02", "product_id": "M001", "quantity": -4}
	]`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reports/sales", strings.NewReader(body))
	SalesImport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result salesImportResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Imported != 1 || result.Failed != 3 {
		t.Fatalf("expected 1 imported / 3 failed, got %+v", result)
	}

	var record models.DailySalesSummary
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("expected a stored sales record: %v", err)
	}
	if record.MealID == nil || *record.MealID != meal.ID {
		t.Fatalf("record should reference the meal, got %+v", record)
	}
	if !record.QuantitySold.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("record quantity = %s, want 12", record.QuantitySold)
	}
}

func TestSalesImportResolvesHalfProducts(t *testing.T) {
	db := setupHandlers(t)
	_, soup, _, _ := seedKitchen(t, db)

	body := `[{"sale_date": "2026-08-01", "product_id": "H001", "quantity": 2}]`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reports/sales", strings.NewReader(body))
	SalesImport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var record models.DailySalesSummary
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("expected a stored sales record: %v", err)
	}
	if record.HalfProductID == nil || *record.HalfProductID != soup.ID {
		t.Fatalf("record should reference the half product, got %+v", record)
	}
}

func TestMaterialUsageReportAggregatesWindow(t *testing.T) {
	db := setupHandlers(t)
	meal, _, beef, noodle := seedKitchen(t, db)

	saleDate := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	records := []models.DailySalesSummary{
		{SaleDate: saleDate, MealID: &meal.ID, QuantitySold: decimal.NewFromInt(1)},
		{SaleDate: saleDate, MealID: &meal.ID, QuantitySold: decimal.NewFromInt(1)},
		{SaleDate: outside, MealID: &meal.ID, QuantitySold: decimal.NewFromInt(100)},
	}
	for i := range records {
		if err := db.Create(&records[i]).Error; err != nil {
			t.Fatalf("failed to seed sales record: %v", err)
		}
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/material-usage?start=2026-08-01&end=2026-08-31", nil)
	MaterialUsageReport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var report []recipe.Usage
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}

	byID := make(map[string]recipe.Usage, len(report))
	for _, usage := range report {
		byID[usage.ID] = usage
	}
	// Two servings inside the window; the September sale must not count.
	if got := byID[beef.ID]; !got.Quantity.Equal(decimal.RequireFromString("0.96")) {
		t.Fatalf("beef total = %s, want 0.96", got.Quantity)
	}
	if got := byID[noodle.ID]; !got.Quantity.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("noodle total = %s, want 360", got.Quantity)
	}
}

func TestMaterialUsageReportValidatesWindow(t *testing.T) {
	setupHandlers(t)

	for name, target := range map[string]string{
		"missing params": "/api/reports/material-usage",
		"bad start":      "/api/reports/material-usage?start=nope&end=2026-08-31",
		"inverted range": "/api/reports/material-usage?start=2026-08-31&end=2026-08-01",
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		MaterialUsageReport(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rr.Code)
		}
	}
}

func TestTopMealsReportRanksByCategory(t *testing.T) {
	db := setupHandlers(t)

	saleDate := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	for i, row := range []struct {
		productID string
		name      string
		sold      int64
	}{
		{"M001", "牛肉麵", 30},
		{"M002", "陽春麵", 50},
		{"M003", "排骨麵", 10},
	} {
		meal := models.Meal{ProductID: row.productID, Name: row.name, MenuCategory: "麵類", MenuClassification: "主餐", MealType: "內用", IsActive: true}
		if err := db.Create(&meal).Error; err != nil {
			t.Fatalf("failed to seed meal %d: %v", i, err)
		}
		record := models.DailySalesSummary{SaleDate: saleDate, MealID: &meal.ID, QuantitySold: decimal.NewFromInt(row.sold)}
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("failed to seed sales record %d: %v", i, err)
		}
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/top-meals?start=2026-08-01&end=2026-08-31", nil)
	TopMealsReport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var report map[string][]topMealEntry
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	entries := report["麵類"]
	if len(entries) != 3 {
		t.Fatalf("expected three entries for 麵類, got %+v", entries)
	}
	if entries[0].Name != "陽春麵" || entries[1].Name != "牛肉麵" || entries[2].Name != "排骨麵" {
		t.Fatalf("entries not ranked by quantity sold: %+v", entries)
	}
}
