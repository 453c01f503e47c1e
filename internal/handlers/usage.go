package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	applog "bistro/internal/log"
	"bistro/internal/recipe"
)

// serveUsage answers GET {resource}/{id}/usage?quantity=&unit= by expanding
// the entity's recipe into total raw-material demand.
func serveUsage(w http.ResponseWriter, r *http.Request, rootID string, rootType recipe.ParentType) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	rawQuantity := strings.TrimSpace(r.URL.Query().Get("quantity"))
	unit := strings.TrimSpace(r.URL.Query().Get("unit"))
	if rawQuantity == "" || unit == "" {
		writeJSONError(w, http.StatusBadRequest, "quantity and unit query parameters are required")
		return
	}

	quantity, err := decimal.NewFromString(rawQuantity)
	if err != nil || !quantity.IsPositive() {
		writeJSONError(w, http.StatusBadRequest, "quantity must be a positive number")
		return
	}

	usages, err := aggregator.ComputeUsage(ctx, rootID, rootType, quantity, unit)
	if err != nil {
		var cycleErr *recipe.CycleError
		switch {
		case errors.Is(err, recipe.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, recipe.ErrInvalidQuantity):
			writeJSONError(w, http.StatusBadRequest, "quantity must be a positive number")
		case errors.As(err, &cycleErr):
			applog.Error(ctx, "recipe graph contains a cycle",
				"rootID", rootID, "rootType", string(rootType), "entityID", cycleErr.EntityID)
			writeJSONError(w, http.StatusUnprocessableEntity, "the recipe graph contains a cycle and cannot be expanded")
		default:
			applog.Error(ctx, "failed to compute usage", "error", err, "rootID", rootID, "rootType", string(rootType))
			writeJSONError(w, http.StatusInternalServerError, "unable to compute usage")
		}
		return
	}

	writeJSON(w, http.StatusOK, usages)
}

// serveRecipeSet answers GET/PUT on {resource}/{id}/recipe: reading the
// stored recipe lines or replacing the whole set atomically.
func serveRecipeSet(w http.ResponseWriter, r *http.Request, parentID string, parentType recipe.ParentType) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		items, err := catalog.DirectItems(ctx, parentID, parentType)
		if err != nil {
			applog.Error(ctx, "failed to load recipe items", "error", err, "parentID", parentID)
			writeJSONError(w, http.StatusInternalServerError, "unable to load recipe items")
			return
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPut:
		if err := ensureParentExists(r, parentID, parentType); err != nil {
			if errors.Is(err, recipe.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			applog.Error(ctx, "failed to load recipe parent", "error", err, "parentID", parentID)
			writeJSONError(w, http.StatusInternalServerError, "unable to load recipe parent")
			return
		}

		var items []recipe.ItemInput
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
			applog.Debug(ctx, "invalid recipe payload", "error", err)
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		for _, item := range items {
			if err := item.Validate(); err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		if err := catalog.ReplaceItems(ctx, parentID, parentType, items); err != nil {
			applog.Error(ctx, "failed to replace recipe items", "error", err, "parentID", parentID)
			writeJSONError(w, http.StatusInternalServerError, "unable to save recipe items")
			return
		}

		saved, err := catalog.DirectItems(ctx, parentID, parentType)
		if err != nil {
			applog.Error(ctx, "failed to reload recipe items", "error", err, "parentID", parentID)
			writeJSONError(w, http.StatusInternalServerError, "unable to load recipe items")
			return
		}
		writeJSON(w, http.StatusOK, saved)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func ensureParentExists(r *http.Request, parentID string, parentType recipe.ParentType) error {
	ctx := r.Context()
	if parentType == recipe.ParentMeal {
		_, err := catalog.Meal(ctx, parentID)
		return err
	}
	_, err := catalog.HalfProduct(ctx, parentID)
	return err
}
