package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-ledger/internal/calendar"
	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/service"
)

// Pagination is the page metadata of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// EventPage is the body of GET /events.
type EventPage struct {
	Data       []domain.Event `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// EnrichStatus is the body of POST /events/{id}/enrich.
type EnrichStatus struct {
	Status string `json:"status"` // "started" or "in_flight"
}

// ListEvents handles GET /events.
// Supports ?filter=today and ?page= / ?limit= (defaults: page=1, limit=20, max=100).
// Without page and limit the whole list is returned as a single page.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	var (
		events []domain.Event
		total  int
		params domain.PaginationParams
	)
	if page == nil && limit == nil {
		events = s.events.List(filter)
		total = len(events)
		params = domain.PaginationParams{Page: 1, Limit: total}
	} else {
		params = domain.NewPaginationParams(page, limit)
		events, total = s.events.ListPage(filter, params)
	}
	if events == nil {
		events = []domain.Event{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, EventPage{
		Data:       events,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// ListDays handles GET /events/days.
func (s *Server) ListDays(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.events.Days(filter))
}

// CreateEvent handles POST /events.
func (s *Server) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if !decodeJSON(w, r, &draft) {
		return
	}
	draft.ID = ""

	created, err := s.events.Create(draft)
	if err != nil {
		s.writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetEvent handles GET /events/{id}.
func (s *Server) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.events.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}. The body replaces every editable
// field; the id in the path wins over any id in the body.
func (s *Server) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if !decodeJSON(w, r, &draft) {
		return
	}

	updated, err := s.events.Update(chi.URLParam(r, "id"), draft)
	if err != nil {
		s.writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteEvent handles DELETE /events/{id}. Deleting an unknown id still
// returns 204.
func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	s.events.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// EnrichEvent handles POST /events/{id}/enrich. The lookup runs in the
// background; the response only says whether a new run was started.
func (s *Server) EnrichEvent(w http.ResponseWriter, r *http.Request) {
	started, err := s.enricher.Start(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "event")
		return
	}
	status := "started"
	if !started {
		status = "in_flight"
	}
	writeJSON(w, http.StatusAccepted, EnrichStatus{Status: status})
}

// GetEventCalendar handles GET /events/{id}/calendar with a one-event
// iCalendar document.
func (s *Server) GetEventCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.export.Calendar(id)
	if err != nil {
		s.writeServiceError(w, r, err, "event")
		return
	}
	body := calendar.Render([]domain.CalendarEntry{entry}, s.now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="event-`+safeFilename(id)+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func listFilter(w http.ResponseWriter, r *http.Request) (service.ListFilter, bool) {
	switch f := r.URL.Query().Get("filter"); f {
	case "", "all":
		return service.ListFilter{}, true
	case "today":
		return service.ListFilter{Today: true}, true
	default:
		writeError(w, http.StatusUnprocessableEntity, codeValidation, `filter must be "all" or "today"`)
		return service.ListFilter{}, false
	}
}

// queryInt parses an optional integer query parameter; nil means absent.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, name+" must be an integer")
		return nil, false
	}
	return &n, true
}

// safeFilename keeps letters, digits, dashes and underscores.
func safeFilename(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return "event"
	}
	return string(out)
}
