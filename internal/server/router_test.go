package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRouterRegistersHealthRoute(t *testing.T) {
	router := newRouter()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to return 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
}

func TestNewRouterRegistersAPIRoutes(t *testing.T) {
	router := newRouter()

	// Without a configured database the resource handlers answer 503, which
	// still proves the route is wired.
	for _, path := range []string{
		"/api/meals",
		"/api/half-products",
		"/api/raw-materials",
		"/api/units/conversions",
		"/api/reports/material-usage",
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(rr, req)
		if rr.Code == http.StatusNotFound {
			t.Errorf("%s: route not registered", path)
		}
	}
}
