package handler

import (
	"errors"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/service"
)

// SuggestionRequest is the body of POST /suggestions.
type SuggestionRequest struct {
	Destination   string              `json:"destination" validate:"required"`
	TripStartDate *openapi_types.Date `json:"tripStartDate" validate:"required"`
	Days          int                 `json:"days" validate:"required,min=1,max=14"`
	Preferences   string              `json:"preferences" validate:"max=500"`
}

// AcceptRequest is the body of POST /suggestions/accept.
type AcceptRequest struct {
	TripStartDate *openapi_types.Date `json:"tripStartDate" validate:"required"`
	Suggestion    *domain.Suggestion  `json:"suggestion" validate:"required"`
}

// SuggestionList is the body of a successful POST /suggestions.
type SuggestionList struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

// PostSuggestions handles POST /suggestions. Suggestions are returned for
// review only; nothing is committed.
func (s *Server) PostSuggestions(w http.ResponseWriter, r *http.Request) {
	var req SuggestionRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, req) {
		return
	}

	suggestions, err := s.planner.Suggest(r.Context(), service.SuggestRequest{
		Destination: req.Destination,
		TripStart:   req.TripStartDate.Time,
		Days:        req.Days,
		Preferences: req.Preferences,
	})
	switch {
	case errors.Is(err, service.ErrNoGenerator):
		writeError(w, http.StatusServiceUnavailable, codeUpstream, "no suggestion service is configured")
		return
	case errors.Is(err, domain.ErrExtraction):
		writeError(w, http.StatusBadGateway, codeUpstream, "the suggestion service returned no usable suggestions")
		return
	case err != nil:
		s.log.WarnContext(r.Context(), "suggestion request failed", "destination", req.Destination, "error", err)
		writeError(w, http.StatusBadGateway, codeUpstream, "the suggestion service is unavailable")
		return
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}
	writeJSON(w, http.StatusOK, SuggestionList{Suggestions: suggestions})
}

// AcceptSuggestion handles POST /suggestions/accept by committing one
// reviewed suggestion as an event.
func (s *Server) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	var req AcceptRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, req) {
		return
	}

	event, err := s.planner.Accept(*req.Suggestion, req.TripStartDate.Time)
	if err != nil {
		s.writeServiceError(w, r, err, "suggestion")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}
