package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/trip-ledger/internal/metrics"
	"github.com/pkordes/trip-ledger/internal/middleware"
)

// TestMetricsHandler_labelsByRoutePattern verifies that requests to different
// ids are counted under the same route label.
func TestMetricsHandler_labelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.NewMetricsHandler())
	r.Delete("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodDelete, "/events/{id}", "204")
	before := promtest.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/events/"+id, nil))
	}

	assert.Equal(t, before+3, promtest.ToFloat64(counter))
}
