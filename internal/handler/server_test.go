package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/handler"
	"github.com/pkordes/trip-ledger/internal/service"
)

// stubGenerator is a test double for service.TextGenerator.
type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

// testEnv is a Server wired to real in-memory services.
type testEnv struct {
	store    *service.EventStore
	enricher *service.Enricher
	gen      *stubGenerator
	http     http.Handler
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestEnv wires a Server the same way main.go does, minus storage and
// network. Pass a nil generator to run without a suggestion service.
func newTestEnv(t *testing.T, gen *stubGenerator) *testEnv {
	t.Helper()
	store := service.NewEventStore(service.StoreConfig{
		DefaultCurrency: "EUR",
		Location:        time.UTC,
		Now:             func() time.Time { return testNow },
	}, nil, nil)

	var textGen service.TextGenerator
	if gen != nil {
		textGen = gen
	}
	enricher := service.NewEnricher(store, textGen, nil, nil)
	codec := service.NewBackupCodec("EUR", time.UTC, func() time.Time { return testNow })

	srv := handler.NewServer(handler.Services{
		Events:   store,
		Backup:   service.NewBackupService(store, codec, nil),
		Planner:  service.NewPlanner(store, textGen, nil),
		Enricher: enricher,
		Export:   service.NewExportService(store, "HKD"),
	}, nil)
	r := chi.NewRouter()
	srv.Register(r)

	t.Cleanup(enricher.Wait)
	return &testEnv{store: store, enricher: enricher, gen: gen, http: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.http.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createEvent posts body to /events and returns the created event as a map.
func createEvent(t *testing.T, env *testEnv, body map[string]any) map[string]any {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/events", jsonBody(t, body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[map[string]any](t, rec)
}
