package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// RateRequest is the body of PUT /rates/{code}.
type RateRequest struct {
	Rate *float64 `json:"rate" validate:"required,gt=0"`
}

// RateResponse echoes the stored rate.
type RateResponse struct {
	Code string      `json:"code"`
	Rate json.Number `json:"rate"`
}

// GetRates handles GET /rates with the full code → multiplier table.
func (s *Server) GetRates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.events.Rates())
}

// PutRate handles PUT /rates/{code}.
func (s *Server) PutRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, req) {
		return
	}

	rate := decimal.NewFromFloat(*req.Rate)
	code, err := s.events.SetRate(chi.URLParam(r, "code"), rate)
	if err != nil {
		s.writeServiceError(w, r, err, "rate")
		return
	}
	writeJSON(w, http.StatusOK, RateResponse{Code: code, Rate: json.Number(rate.String())})
}
