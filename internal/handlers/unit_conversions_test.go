package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bistro/models"
)

func TestUnitListSeparatesConvertible(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
	UnitList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload["units"]) == 0 {
		t.Fatal("expected a unit vocabulary")
	}
	for _, unit := range payload["convertible"] {
		if unit == "個" || unit == "份" {
			t.Fatalf("count-like unit %q listed as convertible", unit)
		}
	}
}

func TestUnitConversionCreate(t *testing.T) {
	setupHandlers(t)

	body := `{"from_unit":"公斤","to_unit":"克","rate":1000}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/units/conversions", strings.NewReader(body))
	UnitConversionResource(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created models.UnitConversion
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !created.Rate.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("created rate = %s, want 1000", created.Rate)
	}
}

func TestUnitConversionCreateRejectsDuplicatePair(t *testing.T) {
	db := setupHandlers(t)
	if err := db.Create(&models.UnitConversion{FromUnit: "公斤", ToUnit: "克", Rate: decimal.NewFromInt(1000)}).Error; err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}

	body := `{"from_unit":"公斤","to_unit":"克","rate":999}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/units/conversions", strings.NewReader(body))
	UnitConversionResource(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate pair, got %d", rr.Code)
	}
}

func TestUnitConversionCreateValidation(t *testing.T) {
	setupHandlers(t)

	cases := map[string]string{
		"opaque unit":        `{"from_unit":"份","to_unit":"克","rate":100}`,
		"same units":         `{"from_unit":"克","to_unit":"克","rate":1}`,
		"cross dimension":    `{"from_unit":"公斤","to_unit":"毫升","rate":1000}`,
		"zero rate":          `{"from_unit":"公斤","to_unit":"克","rate":0}`,
		"negative rate":      `{"from_unit":"公斤","to_unit":"克","rate":-10}`,
		"missing units":      `{"rate":1000}`,
	}
	for name, body := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/units/conversions", strings.NewReader(body))
		UnitConversionResource(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rr.Code)
		}
	}
}

func TestUnitConversionUpdateAndDelete(t *testing.T) {
	db := setupHandlers(t)
	rule := models.UnitConversion{FromUnit: "公斤", ToUnit: "克", Rate: decimal.NewFromInt(1000)}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}

	body := `{"from_unit":"公升","to_unit":"毫升","rate":1000}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/units/conversions/"+rule.ID, strings.NewReader(body))
	UnitConversionResource(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated models.UnitConversion
	if err := json.NewDecoder(rr.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.FromUnit != "公升" || updated.ToUnit != "毫升" {
		t.Fatalf("unexpected updated rule: %+v", updated)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/units/conversions/"+rule.ID, nil)
	UnitConversionResource(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/units/conversions/"+rule.ID, nil)
	UnitConversionResource(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}
