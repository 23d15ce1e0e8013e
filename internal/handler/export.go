package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"event_id", "date", "time", "end_time", "type", "title", "location",
	"cost", "currency", "rate", "base_amount", "cash_only",
}

// ExportRowResponse is one row of the JSON export.
type ExportRowResponse struct {
	EventID    string `json:"eventId"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	EndTime    string `json:"endTime,omitempty"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
	Cost       string `json:"cost"`
	Currency   string `json:"currency"`
	Rate       string `json:"rate"`
	BaseAmount string `json:"baseAmount"`
	CashOnly   bool   `json:"cashOnly"`
}

// GetExport handles GET /export.
// It returns one row per event in itinerary order with its converted cost.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	rows := s.export.Export()

	switch r.URL.Query().Get("format") {
	case "", "json":
		out := make([]ExportRowResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, ExportRowResponse(row))
		}
		writeJSON(w, http.StatusOK, out)
	case "csv":
		body := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="itinerary-`+s.export.Base()+`.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = body.WriteTo(w)
	default:
		writeError(w, http.StatusUnprocessableEntity, codeValidation, `format must be "json" or "csv"`)
	}
}

// buildCSV encodes rows as CSV with a header line.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write([]string{
			r.EventID, r.Date, r.Time, r.EndTime, r.Type, r.Title, r.Location,
			r.Cost, r.Currency, r.Rate, r.BaseAmount, strconv.FormatBool(r.CashOnly),
		})
	}
	w.Flush()
	return &buf
}
