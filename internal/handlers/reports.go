package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "bistro/internal/log"
	"bistro/internal/recipe"
	"bistro/models"
)

const saleDateLayout = "2006-01-02"

type salesRecordInput struct {
	SaleDate  string          `json:"sale_date"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type salesImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// SalesImport ingests a batch of daily sales records. Rows are processed
// best-effort: a bad row is reported and skipped, the rest still land.
func SalesImport(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "sales import request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	var rows []salesRecordInput
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		applog.Debug(ctx, "invalid sales import payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(rows) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no sales records provided")
		return
	}

	result := salesImportResult{}
	for i, row := range rows {
		if err := importSalesRow(r, row); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Imported++
	}

	applog.Info(ctx, "sales import finished", "imported", result.Imported, "failed", result.Failed)
	writeJSON(w, http.StatusOK, result)
}

func importSalesRow(r *http.Request, row salesRecordInput) error {
	ctx := r.Context()

	productID := strings.TrimSpace(row.ProductID)
	if productID == "" {
		return errors.New("product_id is required")
	}
	if !row.Quantity.IsPositive() {
		return errors.New("quantity must be positive")
	}
	saleDate, err := time.Parse(saleDateLayout, strings.TrimSpace(row.SaleDate))
	if err != nil {
		return fmt.Errorf("sale_date must use the %s format", saleDateLayout)
	}

	record := models.DailySalesSummary{
		SaleDate:     saleDate,
		QuantitySold: row.Quantity,
	}

	// Product codes resolve to a meal first, then to a sellable half product.
	var meal models.Meal
	err = database.WithContext(ctx).First(&meal, "product_id = ?", productID).Error
	switch {
	case err == nil:
		record.MealID = &meal.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		var half models.HalfProduct
		err = database.WithContext(ctx).First(&half, "product_id = ?", productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("unknown product code %q", productID)
		}
		if err != nil {
			return err
		}
		record.HalfProductID = &half.ID
	default:
		return err
	}

	return database.WithContext(ctx).Create(&record).Error
}

// MaterialUsageReport answers GET /api/reports/material-usage?start=&end= by
// expanding every sales record in the window and merging the grand totals.
func MaterialUsageReport(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "material usage request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	start, end, err := parseReportWindow(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var records []models.DailySalesSummary
	err = database.WithContext(ctx).
		Where("sale_date >= ? AND sale_date <= ?", start, end).
		Order("sale_date asc").
		Find(&records).Error
	if err != nil {
		applog.Error(ctx, "failed to load sales records", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load sales records")
		return
	}

	totals := make(map[string]*recipe.Usage)
	var order []string
	for _, record := range records {
		rootID, rootType := record.MealID, recipe.ParentMeal
		if rootID == nil {
			rootID, rootType = record.HalfProductID, recipe.ParentHalfProduct
		}
		if rootID == nil {
			applog.Error(ctx, "sales record references no product", "recordID", record.ID)
			continue
		}

		usages, err := aggregator.ComputeUsage(ctx, *rootID, rootType, record.QuantitySold, "")
		if err != nil {
			// One broken recipe must not sink the whole window.
			applog.Warn(ctx, "skipping sales record in usage report",
				"recordID", record.ID, "error", err)
			continue
		}
		for _, usage := range usages {
			key := usage.ID + "|" + usage.Unit
			if existing, ok := totals[key]; ok {
				existing.Quantity = existing.Quantity.Add(usage.Quantity)
				continue
			}
			entry := usage
			totals[key] = &entry
			order = append(order, key)
		}
	}

	report := make([]recipe.Usage, 0, len(order))
	for _, key := range order {
		report = append(report, *totals[key])
	}
	sort.SliceStable(report, func(i, j int) bool {
		if report[i].Name != report[j].Name {
			return report[i].Name < report[j].Name
		}
		return report[i].Unit < report[j].Unit
	})

	writeJSON(w, http.StatusOK, report)
}

type topMealEntry struct {
	MealID       string          `json:"meal_id"`
	Name         string          `json:"name"`
	MenuCategory string          `json:"menu_category"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
}

// TopMealsReport answers GET /api/reports/top-meals?start=&end= with the five
// best-selling meals per menu category over the window.
func TopMealsReport(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "top meals request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	start, end, err := parseReportWindow(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var records []models.DailySalesSummary
	err = database.WithContext(ctx).
		Where("sale_date >= ? AND sale_date <= ? AND meal_id IS NOT NULL", start, end).
		Find(&records).Error
	if err != nil {
		applog.Error(ctx, "failed to load sales records", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load sales records")
		return
	}

	soldByMeal := make(map[string]decimal.Decimal)
	for _, record := range records {
		soldByMeal[*record.MealID] = soldByMeal[*record.MealID].Add(record.QuantitySold)
	}

	entriesByCategory := make(map[string][]topMealEntry)
	for mealID, sold := range soldByMeal {
		var meal models.Meal
		if err := database.WithContext(ctx).First(&meal, "id = ?", mealID).Error; err != nil {
			applog.Warn(ctx, "sales record references missing meal", "mealID", mealID)
			continue
		}
		entriesByCategory[meal.MenuCategory] = append(entriesByCategory[meal.MenuCategory], topMealEntry{
			MealID:       meal.ID,
			Name:         meal.Name,
			MenuCategory: meal.MenuCategory,
			QuantitySold: sold,
		})
	}

	report := make(map[string][]topMealEntry, len(entriesByCategory))
	for category, entries := range entriesByCategory {
		sort.SliceStable(entries, func(i, j int) bool {
			if !entries[i].QuantitySold.Equal(entries[j].QuantitySold) {
				return entries[i].QuantitySold.GreaterThan(entries[j].QuantitySold)
			}
			return entries[i].Name < entries[j].Name
		})
		if len(entries) > 5 {
			entries = entries[:5]
		}
		report[category] = entries
	}

	writeJSON(w, http.StatusOK, report)
}

func parseReportWindow(r *http.Request) (time.Time, time.Time, error) {
	rawStart := strings.TrimSpace(r.URL.Query().Get("start"))
	rawEnd := strings.TrimSpace(r.URL.Query().Get("end"))
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, errors.New("start and end query parameters are required")
	}
	start, err := time.Parse(saleDateLayout, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start must use the %s format", saleDateLayout)
	}
	end, err := time.Parse(saleDateLayout, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end must use the %s format", saleDateLayout)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end must not be before start")
	}
	return start, end, nil
}
