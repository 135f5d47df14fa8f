package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRouterMethodAndCORS(t *testing.T) {
	router := NewRouter(Routes{
		Weather: http.HandlerFunc(okHandler),
		Health:  okHandler,
	}, []string{"https://dashboard.example"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("expected 405 with Allow header, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/weather", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example" {
		t.Fatalf("expected CORS header for allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/weather", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for foreign origin, got %q", got)
	}
}

func TestRouterSkipsUnsetRoutes(t *testing.T) {
	router := NewRouter(Routes{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unset route, got %d", rec.Code)
	}
}
