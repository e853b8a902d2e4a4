package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator accepts a fixed set of tokens.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func (v *testTokenValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	userID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(userID), nil
}

type testClaims uuid.UUID

func (c testClaims) GetUserID() uuid.UUID {
	return uuid.UUID(c)
}

func protected(t *testing.T, validator TokenValidator) (http.Handler, *uuid.UUID) {
	t.Helper()
	var seen uuid.UUID
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserID(r)
		require.NoError(t, err)
		seen = id
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(validator, zerolog.Nop())(h), &seen
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	handler, seen := protected(t, &testTokenValidator{validTokens: map[string]uuid.UUID{"tok-123": userID}})

	for _, header := range []string{"Bearer tok-123", "bearer tok-123", "BEARER   tok-123"} {
		req := httptest.NewRequest(http.MethodGet, "/api/drafts", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.Equal(t, userID, *seen)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	handler, _ := protected(t, &testTokenValidator{validTokens: map[string]uuid.UUID{"tok-123": uuid.New()}})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"no token", "Bearer"},
		{"extra parts", "Bearer tok-123 extra"},
		{"unknown token", "Bearer tok-999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/drafts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Unauthorized", body["error"])
		})
	}
}

func TestGetUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)

	userID := uuid.New()
	req = req.WithContext(WithUserID(context.Background(), userID))
	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
