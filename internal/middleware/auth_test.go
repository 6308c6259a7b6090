package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestJWTAuth_RoundTrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()

	token, err := auth.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotUserID uuid.UUID
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/study-sessions/active", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if gotUserID != userID {
		t.Errorf("Expected user %s in context, got %s", userID, gotUserID)
	}
}

func TestJWTAuth_RejectsBadTokens(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/streak", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rr.Code)
			}
			if called {
				t.Error("Expected handler not to run")
			}
		})
	}
}

func TestJWTAuth_RejectsTokenFromOtherSecret(t *testing.T) {
	other := NewJWTAuth("other-secret")
	token, err := other.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	auth := NewJWTAuth("test-secret")
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/streak", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for foreign token, got %d", rr.Code)
	}
}
