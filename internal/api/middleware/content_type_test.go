package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquadose/aquadose/internal/api/middleware"
)

func TestContentTypeJSON_HandlerCanOverride(t *testing.T) {
	handler := middleware.ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", http.NoBody))

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		allowYAML   bool
		status      int
	}{
		{"json accepted", http.MethodPost, "application/json", false, http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", false, http.StatusOK},
		{"missing header accepted", http.MethodPut, "", false, http.StatusOK},
		{"form rejected", http.MethodPost, "application/x-www-form-urlencoded", false, http.StatusUnsupportedMediaType},
		{"yaml rejected by default", http.MethodPost, "application/yaml", false, http.StatusUnsupportedMediaType},
		{"yaml allowed for imports", http.MethodPost, "application/yaml", true, http.StatusOK},
		{"get not checked", http.MethodGet, "text/plain", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireJSON(tt.allowYAML)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/v1/dosing/calculate", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnsupportedMediaType {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}
