package mcpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/finch-mcp/internal/finch"
)

func TestHTTPServer_Health(t *testing.T) {
	s := testServer(t, finch.NewMockRunner())
	h := s.NewHTTPServer(HTTPOptions{Addr: "127.0.0.1:0"})

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Name, body["server"])
	assert.Equal(t, true, body["readOnly"])
}

func TestHTTPServer_MessageRejectsGet(t *testing.T) {
	s := testServer(t, finch.NewMockRunner())
	h := s.NewHTTPServer(HTTPOptions{Addr: "127.0.0.1:0"})

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/message", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTPServer_CORSPreflight(t *testing.T) {
	s := testServer(t, finch.NewMockRunner())
	h := s.NewHTTPServer(HTTPOptions{Addr: "127.0.0.1:0", AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/message", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPServer_DefaultOriginsAllowLocalPorts(t *testing.T) {
	s := testServer(t, finch.NewMockRunner())
	h := s.NewHTTPServer(HTTPOptions{Addr: "127.0.0.1:0"})

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:18790", "http://localhost:18790"},
		{"http://127.0.0.1:5173", "http://127.0.0.1:5173"},
		{"http://localhost", "http://localhost"},
		{"http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
