package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bistro/models"
)

func setupHandlers(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		Configure(nil, 0)
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(
		&models.RawMaterial{},
		&models.HalfProduct{},
		&models.Meal{},
		&models.RecipeItem{},
		&models.UnitConversion{},
		&models.DailySalesSummary{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	Configure(db, 0)
	return db
}

func TestHealthReturnsOK(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
}

func TestResourcesUnavailableWithoutDatabase(t *testing.T) {
	Configure(nil, 0)
	t.Cleanup(func() { Configure(nil, 0) })

	endpoints := map[string]http.HandlerFunc{
		"/api/meals":                  MealResource,
		"/api/half-products":          HalfProductResource,
		"/api/raw-materials":          RawMaterialResource,
		"/api/units/conversions":      UnitConversionResource,
		"/api/reports/sales":          SalesImport,
		"/api/reports/material-usage": MaterialUsageReport,
	}
	for path, handler := range endpoints {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler(rr, req)
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503 without database, got %d", path, rr.Code)
		}
	}
}
