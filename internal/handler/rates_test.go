package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRates_IncludesUsedCurrencies(t *testing.T) {
	env := newTestEnv(t, nil)
	createEvent(t, env, map[string]any{"title": "Ramen", "startTime": "2024-05-01T12:00", "currency": "JPY", "cost": 1200})

	rec := env.do(t, http.MethodGet, "/rates", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	rates := decodeBody[map[string]float64](t, rec)
	assert.Contains(t, rates, "JPY")
}

func TestPutRate(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/rates/eur", strings.NewReader(`{"rate":8.5}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"code":"EUR","rate":8.5}`, rec.Body.String())

	rates := decodeBody[map[string]float64](t, env.do(t, http.MethodGet, "/rates", nil))
	assert.InDelta(t, 8.5, rates["EUR"], 1e-9)
}

func TestPutRate_Invalid(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing", `{}`, "rate is required"},
		{"zero", `{"rate":0}`, "rate must be greater than 0"},
		{"negative", `{"rate":-1}`, "rate must be greater than 0"},
		{"not json", `rate=1`, "invalid JSON body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/rates/EUR", strings.NewReader(tc.body))

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}
