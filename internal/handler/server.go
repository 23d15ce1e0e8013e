// Package handler implements the HTTP handlers for the trip ledger API.
// All handlers are methods on Server. Methods are split into resource files
// (events.go, rates.go, etc.) but share the same Server struct so they can
// access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/service"
)

// EventServicer defines the store operations the event and rate handlers
// depend on. Defining the interface here, in the consumer package, lets
// handler tests inject a double without touching storage.
type EventServicer interface {
	Create(draft domain.Draft) (domain.Event, error)
	Get(id string) (domain.Event, error)
	Update(id string, draft domain.Draft) (domain.Event, error)
	Delete(id string)
	List(filter service.ListFilter) []domain.Event
	ListPage(filter service.ListFilter, p domain.PaginationParams) ([]domain.Event, int)
	Days(filter service.ListFilter) []domain.DayGroup
	Rates() domain.RateTable
	SetRate(code string, rate decimal.Decimal) (string, error)
}

// BackupServicer exports and restores the whole store.
type BackupServicer interface {
	Export() ([]byte, error)
	Restore(text string) (domain.Restore, error)
}

// PlannerServicer requests and accepts day-plan suggestions.
type PlannerServicer interface {
	Suggest(ctx context.Context, req service.SuggestRequest) ([]domain.Suggestion, error)
	Accept(s domain.Suggestion, tripStart time.Time) (domain.Event, error)
}

// EnrichServicer starts background enrichment of one event.
type EnrichServicer interface {
	Start(id string) (started bool, err error)
}

// ExportServicer produces the flat export, the expense report and calendar entries.
type ExportServicer interface {
	Base() string
	Export() []domain.ExportRow
	Expenses() domain.ExpenseSummary
	Calendar(id string) (domain.CalendarEntry, error)
}

// Services bundles the dependencies of Server.
type Services struct {
	Events   EventServicer
	Backup   BackupServicer
	Planner  PlannerServicer
	Enricher EnrichServicer
	Export   ExportServicer
}

// Server holds the services every handler works against.
type Server struct {
	events   EventServicer
	backup   BackupServicer
	planner  PlannerServicer
	enricher EnrichServicer
	export   ExportServicer
	log      *slog.Logger
	now      func() time.Time
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		events:   svc.Events,
		backup:   svc.Backup,
		planner:  svc.Planner,
		enricher: svc.Enricher,
		export:   svc.Export,
		log:      log,
		now:      time.Now,
	}
}

// Register mounts every API route on r. Middleware is the caller's concern.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.ListEvents)
		r.Post("/", s.CreateEvent)
		r.Get("/days", s.ListDays)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetEvent)
			r.Put("/", s.UpdateEvent)
			r.Delete("/", s.DeleteEvent)
			r.Post("/enrich", s.EnrichEvent)
			r.Get("/calendar", s.GetEventCalendar)
		})
	})

	r.Get("/rates", s.GetRates)
	r.Put("/rates/{code}", s.PutRate)

	r.Get("/expenses", s.GetExpenses)
	r.Get("/export", s.GetExport)

	r.Get("/backup", s.GetBackup)
	r.Post("/restore", s.PostRestore)

	r.Post("/suggestions", s.PostSuggestions)
	r.Post("/suggestions/accept", s.AcceptSuggestion)
}
