package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(method, origin string) *http.Request {
	req := httptest.NewRequest(method, "/api/cart", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins:     []string{"https://mateicos.com.ar"},
		AllowCredentials: true,
		MaxAge:           600,
	})(okHandler())

	req := corsRequest(http.MethodOptions, "https://mateicos.com.ar")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://mateicos.com.ar", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://mateicos.com.ar"}})(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, corsRequest(http.MethodGet, "https://evil.example"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_Wildcard(t *testing.T) {
	tests := []struct {
		name        string
		credentials bool
		want        string
	}{
		{name: "anonymous", credentials: false, want: "*"},
		{name: "with credentials echoes origin", credentials: true, want: "https://shop.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: tt.credentials})(okHandler())
			w := httptest.NewRecorder()
			h.ServeHTTP(w, corsRequest(http.MethodGet, "https://shop.example"))
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_NoOrigin(t *testing.T) {
	h := CORS(CORSConfig{})(okHandler())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, corsRequest(http.MethodGet, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
