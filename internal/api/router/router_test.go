package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opencourt/receptionist/internal/facility"
)

func TestHealthEndpoint(t *testing.T) {
	h := New(&Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Fatal("expected body")
	}
}

func TestUnwiredRoutesAreAbsent(t *testing.T) {
	h := New(&Config{})

	for _, path := range []string{"/availability", "/bookings", "/admin/facilities"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected absent route, got %d", path, rec.Code)
		}
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	h := New(&Config{
		AdminAuthSecret: "secret",
		FacilityHandler: facility.NewHandler(nil, nil, nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/facilities/not-a-uuid/config", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/facilities/not-a-uuid/config", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "secret"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	// Authenticated request reaches the handler, which rejects the id.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with token, got %d", rec.Code)
	}
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
