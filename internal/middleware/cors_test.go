package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/trip-ledger/internal/middleware"
)

const webOrigin = "http://localhost:5173"

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func corsRequest(method, origin string, headers map[string]string) *httptest.ResponseRecorder {
	h := middleware.NewCORSHandler([]string{webOrigin})(ok)
	req := httptest.NewRequest(method, "/export?format=csv", nil)
	req.Header.Set("Origin", origin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewCORSHandler_AllowedOrigin(t *testing.T) {
	rec := corsRequest(http.MethodGet, webOrigin, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, webOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	// The web client reads the download name and the list total.
	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "Content-Disposition")
	assert.Contains(t, exposed, "X-Total-Count")
}

func TestNewCORSHandler_OtherOrigin(t *testing.T) {
	rec := corsRequest(http.MethodGet, "http://elsewhere.example", nil)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewCORSHandler_Preflight(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			// Browsers send requested header names in lowercase.
			rec := corsRequest(http.MethodOptions, webOrigin, map[string]string{
				"Access-Control-Request-Method":  method,
				"Access-Control-Request-Headers": "content-type",
			})

			assert.Less(t, rec.Code, 300, "preflight status")
			assert.Equal(t, webOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, method, rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
		})
	}
}
