package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent(t *testing.T) {
	env := newTestEnv(t, nil)

	got := createEvent(t, env, map[string]any{
		"title":     "Louvre",
		"startTime": "2024-05-01T09:00",
		"cost":      17,
	})

	assert.NotEmpty(t, got["id"])
	assert.Equal(t, "Louvre", got["title"])
	assert.Equal(t, "EUR", got["currency"])
	assert.Equal(t, "activity", got["type"])
	assert.EqualValues(t, 17, got["cost"])
}

func TestCreateEvent_IgnoresClientID(t *testing.T) {
	env := newTestEnv(t, nil)

	got := createEvent(t, env, map[string]any{"id": "mine", "title": "x", "startTime": "2024-05-01T09:00"})

	assert.NotEqual(t, "mine", got["id"])
}

func TestCreateEvent_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/events", jsonBody(t, map[string]any{"startTime": "2024-05-01T09:00"}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"validation_error","message":"title is required"}}`, rec.Body.String())
}

func TestCreateEvent_MalformedJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/events", strings.NewReader(`{"title":`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestListEvents_SortedAndPaged(t *testing.T) {
	env := newTestEnv(t, nil)
	createEvent(t, env, map[string]any{"title": "Dinner", "startTime": "2024-05-01T19:00"})
	createEvent(t, env, map[string]any{"title": "Breakfast", "startTime": "2024-05-01T08:00"})
	createEvent(t, env, map[string]any{"title": "Museum", "startTime": "2024-05-02T10:00"})

	rec := env.do(t, http.MethodGet, "/events?limit=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	page := decodeBody[struct {
		Data []struct {
			Title string `json:"title"`
		} `json:"data"`
		Pagination struct {
			Page, Limit, Total int
		} `json:"pagination"`
	}](t, rec)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Breakfast", page.Data[0].Title)
	assert.Equal(t, "Dinner", page.Data[1].Title)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Limit)
}

func TestListEvents_Today(t *testing.T) {
	env := newTestEnv(t, nil)
	createEvent(t, env, map[string]any{"title": "Today", "startTime": "2024-05-01T19:00"})
	createEvent(t, env, map[string]any{"title": "Tomorrow", "startTime": "2024-05-02T10:00"})

	rec := env.do(t, http.MethodGet, "/events?filter=today", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Today"`)
	assert.NotContains(t, rec.Body.String(), `"Tomorrow"`)
}

func TestListEvents_BadQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, q := range []string{"?filter=week", "?page=two"} {
		rec := env.do(t, http.MethodGet, "/events"+q, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
	}
}

func TestListDays(t *testing.T) {
	env := newTestEnv(t, nil)
	createEvent(t, env, map[string]any{"title": "A", "startTime": "2024-05-01T09:00"})
	createEvent(t, env, map[string]any{"title": "B", "startTime": "2024-05-02T09:00"})

	rec := env.do(t, http.MethodGet, "/events/days", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	days := decodeBody[[]struct {
		Date   string           `json:"date"`
		Events []map[string]any `json:"events"`
	}](t, rec)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-05-01", days[0].Date)
	assert.Equal(t, "2024-05-02", days[1].Date)
}

func TestGetEvent_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/events/nope", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"not_found","message":"event not found"}}`, rec.Body.String())
}

func TestUpdateEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	created := createEvent(t, env, map[string]any{"title": "Louvre", "startTime": "2024-05-01T09:00"})
	id := created["id"].(string)

	rec := env.do(t, http.MethodPut, "/events/"+id, jsonBody(t, map[string]any{
		"title": "Louvre (late)", "startTime": "2024-05-01T17:00", "currency": "eur",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, id, got["id"])
	assert.Equal(t, "2024-05-01T17:00", got["startTime"])

	rec = env.do(t, http.MethodPut, "/events/missing", jsonBody(t, map[string]any{"title": "x", "startTime": "2024-05-01T17:00"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEvent_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	created := createEvent(t, env, map[string]any{"title": "Louvre", "startTime": "2024-05-01T09:00"})
	id := created["id"].(string)

	for range 2 {
		rec := env.do(t, http.MethodDelete, "/events/"+id, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/events/"+id, nil).Code)
}

func TestEnrichEvent(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{reply: `{"mustDos":["Mona Lisa"],"warnings":[]}`})
	created := createEvent(t, env, map[string]any{"title": "Louvre", "startTime": "2024-05-01T09:00"})
	id := created["id"].(string)

	rec := env.do(t, http.MethodPost, "/events/"+id+"/enrich", nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	status := decodeBody[map[string]string](t, rec)["status"]
	assert.Contains(t, []string{"started", "in_flight"}, status)

	env.enricher.Wait()
	rec = env.do(t, http.MethodGet, "/events/"+id, nil)
	assert.Contains(t, rec.Body.String(), "Mona Lisa")

	rec = env.do(t, http.MethodPost, "/events/missing/enrich", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEventCalendar(t *testing.T) {
	env := newTestEnv(t, nil)
	created := createEvent(t, env, map[string]any{"title": "Louvre", "location": "Paris", "startTime": "2024-05-01T09:00"})
	id := created["id"].(string)

	rec := env.do(t, http.MethodGet, "/events/"+id+"/calendar", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".ics")
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VEVENT")
	assert.Contains(t, body, "SUMMARY:Louvre")
	assert.Contains(t, body, "DTSTART:20240501T090000Z")
	assert.Contains(t, body, "DTEND:20240501T100000Z")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/events/missing/calendar", nil).Code)
}

func TestListEvents_AllWithoutPaging(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := range 25 {
		createEvent(t, env, map[string]any{"title": "Stop", "startTime": "2024-05-03T09:00", "cost": i})
	}

	rec := env.do(t, http.MethodGet, "/events", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[struct {
		Data       []map[string]any `json:"data"`
		Pagination map[string]int   `json:"pagination"`
	}](t, rec)
	assert.Len(t, page.Data, 25)
	assert.Equal(t, 25, page.Pagination["total"])
}

func TestListEvents_EmptyIsList(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/events", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}
