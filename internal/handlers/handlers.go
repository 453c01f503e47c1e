// Package handlers exposes the JSON API over the catalog, recipes, unit
// conversions and usage reports.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	applog "bistro/internal/log"
	"bistro/internal/recipe"
	"bistro/internal/store"
	"bistro/internal/units"
)

var (
	database   *gorm.DB
	catalog    *store.Store
	aggregator *recipe.Aggregator
)

// Configure wires the handler package's shared dependencies. maxDepth <= 0
// selects the aggregator default.
func Configure(db *gorm.DB, maxDepth int) {
	database = db
	if db == nil {
		catalog = nil
		aggregator = nil
		return
	}
	catalog = store.New(db)
	aggregator = recipe.NewAggregator(catalog, catalog, units.NewResolver(catalog), maxDepth)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
