package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "bistro/internal/log"
	"bistro/models"
)

type rawMaterialRequest struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	IsActive  *bool  `json:"is_active"`
}

// RawMaterialResource handles REST-style interactions for raw materials.
func RawMaterialResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "raw material request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/raw-materials")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listRawMaterials(w, r)
		case http.MethodPost:
			createRawMaterial(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRawMaterial(w, r, path)
	case http.MethodPut:
		updateRawMaterial(w, r, path)
	case http.MethodDelete:
		deleteRawMaterial(w, r, path)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listRawMaterials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var materials []models.RawMaterial
	if err := database.WithContext(ctx).Order("name asc").Find(&materials).Error; err != nil {
		applog.Error(ctx, "failed to list raw materials", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw materials")
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func showRawMaterial(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var material models.RawMaterial
	if err := database.WithContext(ctx).First(&material, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load raw material", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw material")
		return
	}
	writeJSON(w, http.StatusOK, material)
}

func createRawMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload rawMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid raw material create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateRawMaterialPayload(payload); err != nil {
		applog.Debug(ctx, "raw material validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := rawMaterialIdentityTaken(r, payload, "")
	if err != nil {
		applog.Error(ctx, "failed to check raw material uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create raw material")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "a raw material with this product code or name already exists")
		return
	}

	material := models.RawMaterial{
		ProductID: strings.TrimSpace(payload.ProductID),
		Name:      strings.TrimSpace(payload.Name),
		Unit:      strings.TrimSpace(payload.Unit),
		IsActive:  payload.IsActive == nil || *payload.IsActive,
	}

	if err := database.WithContext(ctx).Create(&material).Error; err != nil {
		applog.Error(ctx, "failed to create raw material", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create raw material")
		return
	}

	writeJSON(w, http.StatusCreated, material)
}

func updateRawMaterial(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var existing models.RawMaterial
	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load raw material for update", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw material")
		return
	}

	var payload rawMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid raw material update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateRawMaterialPayload(payload); err != nil {
		applog.Debug(ctx, "raw material update validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := rawMaterialIdentityTaken(r, payload, existing.ID)
	if err != nil {
		applog.Error(ctx, "failed to check raw material uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to update raw material")
		return
	}
	if taken {
		writeJSONError(w, http.StatusConflict, "a raw material with this product code or name already exists")
		return
	}

	updates := map[string]any{
		"product_id": strings.TrimSpace(payload.ProductID),
		"name":       strings.TrimSpace(payload.Name),
		"unit":       strings.TrimSpace(payload.Unit),
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}

	if err := database.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update raw material", "error", err, "id", id)
		writeJSONError(w, http.StatusBadRequest, "unable to update raw material")
		return
	}

	if err := database.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		applog.Error(ctx, "failed to reload updated raw material", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw material")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

func deleteRawMaterial(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var referenced int64
	err := database.WithContext(ctx).Model(&models.RecipeItem{}).
		Where("raw_material_id = ?", id).Count(&referenced).Error
	if err != nil {
		applog.Error(ctx, "failed to check raw material references", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete raw material")
		return
	}
	if referenced > 0 {
		writeJSONError(w, http.StatusConflict, "raw material is referenced by recipes; remove those recipe lines first")
		return
	}

	result := database.WithContext(ctx).Delete(&models.RawMaterial{}, "id = ?", id)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete raw material", "error", result.Error, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete raw material")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateRawMaterialPayload(payload rawMaterialRequest) error {
	if strings.TrimSpace(payload.ProductID) == "" {
		return errors.New("product_id is required")
	}
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(payload.Unit) == "" {
		return errors.New("unit is required")
	}
	return nil
}

func rawMaterialIdentityTaken(r *http.Request, payload rawMaterialRequest, excludeID string) (bool, error) {
	query := database.WithContext(r.Context()).Model(&models.RawMaterial{}).
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
