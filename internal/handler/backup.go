package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// RestoreResponse is the body of a successful POST /restore.
type RestoreResponse struct {
	Events   []domain.Event `json:"events"`
	Warnings []string       `json:"warnings"`
}

// GetBackup handles GET /backup with the backup document as a download.
func (s *Server) GetBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := s.backup.Export()
	if err != nil {
		s.writeServiceError(w, r, err, "backup")
		return
	}
	name := "trip-ledger-backup-" + s.now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// PostRestore handles POST /restore. The body is the pasted backup text, in
// any content type; prose and code fences around it are tolerated. The store
// is only replaced when the whole document is valid.
func (s *Server) PostRestore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "could not read body")
		return
	}

	result, err := s.backup.Restore(string(body))
	if err != nil {
		s.writeServiceError(w, r, err, "backup")
		return
	}
	events := result.Events
	if events == nil {
		events = []domain.Event{}
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, RestoreResponse{Events: events, Warnings: warnings})
}
