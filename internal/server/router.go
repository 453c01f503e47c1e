package server

import (
	"context"
	"net/http"

	"bistro/internal/handlers"
	applog "bistro/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/api/meals", handlers.MealResource)
	mux.HandleFunc("/api/meals/", handlers.MealResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/meals")
	mux.HandleFunc("/api/half-products", handlers.HalfProductResource)
	mux.HandleFunc("/api/half-products/", handlers.HalfProductResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/half-products")
	mux.HandleFunc("/api/raw-materials", handlers.RawMaterialResource)
	mux.HandleFunc("/api/raw-materials/", handlers.RawMaterialResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/raw-materials")
	mux.HandleFunc("/api/units", handlers.UnitList)
	mux.HandleFunc("/api/units/conversions", handlers.UnitConversionResource)
	mux.HandleFunc("/api/units/conversions/", handlers.UnitConversionResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/units")
	mux.HandleFunc("/api/reports/sales", handlers.SalesImport)
	mux.HandleFunc("/api/reports/material-usage", handlers.MaterialUsageReport)
	mux.HandleFunc("/api/reports/top-meals", handlers.TopMealsReport)
	applog.Debug(context.Background(), "route registered", "path", "/api/reports")
	return mux
}
