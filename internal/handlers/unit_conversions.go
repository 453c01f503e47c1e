package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "bistro/internal/log"
	"bistro/internal/units"
	"bistro/models"
)

// knownUnits is the vocabulary offered to clients. Only the measurable ones
// may appear in conversion rules; the rest are count-like tokens.
var knownUnits = []string{
	"克", "公克", "公斤", "毫升", "公升",
	"個", "包", "箱", "份", "碗", "杯", "片", "條",
}

type unitConversionRequest struct {
	FromUnit string          `json:"from_unit"`
	ToUnit   string          `json:"to_unit"`
	Rate     decimal.Decimal `json:"rate"`
}

// UnitList returns the unit vocabulary and which units are convertible.
func UnitList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	convertible := make([]string, 0, len(knownUnits))
	for _, unit := range knownUnits {
		if units.Convertible(unit) {
			convertible = append(convertible, unit)
		}
	}

	writeJSON(w, http.StatusOK, map[string][]string{
		"units":       knownUnits,
		"convertible": convertible,
	})
}

// UnitConversionResource handles CRUD interactions for conversion rules.
func UnitConversionResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "unit conversion request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/units/conversions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listUnitConversions(w, r)
		case http.MethodPost:
			createUnitConversion(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		updateUnitConversion(w, r, path)
	case http.MethodDelete:
		deleteUnitConversion(w, r, path)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listUnitConversions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var rules []models.UnitConversion
	if err := database.WithContext(ctx).Order("from_unit asc, to_unit asc").Find(&rules).Error; err != nil {
		applog.Error(ctx, "failed to list unit conversions", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load unit conversions")
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func createUnitConversion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload unitConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid unit conversion create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateUnitConversionPayload(payload); err != nil {
		applog.Debug(ctx, "unit conversion validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	exists, err := unitConversionPairTaken(r, payload, "")
	if err != nil {
		applog.Error(ctx, "failed to check unit conversion uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create unit conversion")
		return
	}
	if exists {
		writeJSONError(w, http.StatusConflict, "a rule for this unit pair already exists")
		return
	}

	rule := models.UnitConversion{
		FromUnit: strings.TrimSpace(payload.FromUnit),
		ToUnit:   strings.TrimSpace(payload.ToUnit),
		Rate:     payload.Rate,
	}

	if err := database.WithContext(ctx).Create(&rule).Error; err != nil {
		applog.Error(ctx, "failed to create unit conversion", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create unit conversion")
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func updateUnitConversion(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var existing models.UnitConversion
	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load unit conversion for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load unit conversion")
		return
	}

	var payload unitConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid unit conversion update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateUnitConversionPayload(payload); err != nil {
		applog.Debug(ctx, "unit conversion update validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	exists, err := unitConversionPairTaken(r, payload, existing.ID)
	if err != nil {
		applog.Error(ctx, "failed to check unit conversion uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to update unit conversion")
		return
	}
	if exists {
		writeJSONError(w, http.StatusConflict, "a rule for this unit pair already exists")
		return
	}

	updates := map[string]any{
		"from_unit": strings.TrimSpace(payload.FromUnit),
		"to_unit":   strings.TrimSpace(payload.ToUnit),
		"rate":      payload.Rate,
	}

	if err := database.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update unit conversion", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update unit conversion")
		return
	}

	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		applog.Error(ctx, "failed to reload updated unit conversion", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load unit conversion")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

func deleteUnitConversion(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	result := database.WithContext(ctx).Delete(&models.UnitConversion{}, "id = ?", id)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete unit conversion", "error", result.Error, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete unit conversion")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateUnitConversionPayload(payload unitConversionRequest) error {
	from := strings.TrimSpace(payload.FromUnit)
	to := strings.TrimSpace(payload.ToUnit)
	if from == "" || to == "" {
		return errors.New("from_unit and to_unit are required")
	}
	if !units.Convertible(from) || !units.Convertible(to) {
		return errors.New("only measurable mass and volume units may appear in conversion rules")
	}
	if units.Classify(from) != units.Classify(to) {
		return errors.New("from_unit and to_unit must belong to the same dimension")
	}
	if from == to {
		return errors.New("from_unit and to_unit must differ")
	}
	if !payload.Rate.IsPositive() {
		return errors.New("rate must be greater than zero")
	}
	return nil
}

func unitConversionPairTaken(r *http.Request, payload unitConversionRequest, excludeID string) (bool, error) {
	query := database.WithContext(r.Context()).Model(&models.UnitConversion{}).
		Where("from_unit = ? AND to_unit = ?", strings.TrimSpace(payload.FromUnit), strings.TrimSpace(payload.ToUnit))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
