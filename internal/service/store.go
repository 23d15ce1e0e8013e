// Package service contains the business logic of the trip ledger.
// Services validate inputs, enforce invariants and orchestrate the
// collaborators (storage, generative text, image lookup). No SQL or HTTP
// lives here.
package service

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/metrics"
)

// Scheduler receives a copy of the store state after every mutation.
// Saver is the production implementation.
type Scheduler interface {
	Schedule(snap domain.Snapshot)
}

// StoreConfig holds the defaults the store applies to incoming drafts.
type StoreConfig struct {
	// DefaultCurrency is used when a draft has no currency. Defaults to "EUR".
	DefaultCurrency string

	// Location is where zone-less timestamps are placed. Defaults to time.Local.
	Location *time.Location

	// Now returns the current time; "today" filters are relative to it.
	// Defaults to time.Now.
	Now func() time.Time
}

// ListFilter selects the events returned by List and Days.
type ListFilter struct {
	// Today keeps only events whose start date is the current local date.
	Today bool
}

// EventStore owns the committed events and the currency rate table.
// All mutations are serialized; each one hands a snapshot to the scheduler.
type EventStore struct {
	mu     sync.Mutex
	events []domain.Event // insertion order
	rates  domain.RateTable

	defaultCurrency string
	loc             *time.Location
	now             func() time.Time
	saver           Scheduler
	log             *slog.Logger
}

// NewEventStore constructs an empty EventStore. saver may be nil, in which
// case nothing is persisted.
func NewEventStore(cfg StoreConfig, saver Scheduler, log *slog.Logger) *EventStore {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &EventStore{
		events:          []domain.Event{},
		rates:           domain.RateTable{},
		defaultCurrency: domain.NormalizeCurrency(cfg.DefaultCurrency, ""),
		loc:             cfg.Location,
		now:             cfg.Now,
		saver:           saver,
		log:             log,
	}
}

// DefaultCurrency returns the currency applied to drafts without one.
func (s *EventStore) DefaultCurrency() string {
	return s.defaultCurrency
}

// Location returns the location zone-less timestamps are read in.
func (s *EventStore) Location() *time.Location {
	return s.loc
}

// Seed installs previously saved state without scheduling a save.
// Duplicate or empty ids are replaced, and every event currency gets a rate.
func (s *EventStore) Seed(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = uniqueIDs(snap.Events)
	s.rates = domain.RateTable{}
	if snap.Rates != nil {
		s.rates = snap.Rates.Clone()
	}
	for _, e := range s.events {
		s.ensureRateLocked(e.Currency)
	}
}

// Create validates draft and commits it as a new event with a fresh id.
// Returns domain.ErrValidation if required fields are missing or malformed.
func (s *EventStore) Create(draft domain.Draft) (domain.Event, error) {
	event, err := draft.Normalize(s.defaultCurrency, s.loc)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventStore.Create: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = uuid.NewString()
	s.events = append(s.events, event)
	s.ensureRateLocked(event.Currency)
	s.commitLocked("create")
	return event, nil
}

// Get returns a single event by id.
// Returns domain.ErrNotFound if no event has that id.
func (s *EventStore) Get(id string) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, i, ok := lo.FindIndexOf(s.events, func(e domain.Event) bool { return e.ID == id })
	if !ok {
		return domain.Event{}, fmt.Errorf("service.EventStore.Get: %w", domain.ErrNotFound)
	}
	return s.events[i], nil
}

// Update validates draft and replaces the event with the given id in place,
// keeping its id and insertion position.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// event does not exist.
func (s *EventStore) Update(id string, draft domain.Draft) (domain.Event, error) {
	event, err := draft.Normalize(s.defaultCurrency, s.loc)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventStore.Update: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, i, ok := lo.FindIndexOf(s.events, func(e domain.Event) bool { return e.ID == id })
	if !ok {
		return domain.Event{}, fmt.Errorf("service.EventStore.Update: %w", domain.ErrNotFound)
	}
	event.ID = id
	s.events[i] = event
	s.ensureRateLocked(event.Currency)
	s.commitLocked("update")
	return event, nil
}

// Delete removes the event with the given id. Deleting an unknown id is a no-op.
func (s *EventStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.events)
	s.events = slices.DeleteFunc(s.events, func(e domain.Event) bool { return e.ID == id })
	if len(s.events) != n {
		s.commitLocked("delete")
	}
}

// Enrich merges enrichment fields into an existing event. Empty patch fields
// leave the current values alone. An unknown id is a no-op; the returned
// bool reports whether an event was patched.
func (s *EventStore) Enrich(id string, patch domain.EnrichmentPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, i, ok := lo.FindIndexOf(s.events, func(e domain.Event) bool { return e.ID == id })
	if !ok {
		return false
	}
	e := s.events[i]
	if patch.ImageURL != "" {
		e.ImageURL = patch.ImageURL
	}
	if len(patch.MustDos) > 0 {
		e.MustDos = slices.Clone(patch.MustDos)
	}
	if len(patch.Warnings) > 0 {
		e.Warnings = slices.Clone(patch.Warnings)
	}
	s.events[i] = e
	s.commitLocked("enrich")
	return true
}

// List returns the events ordered by start time ascending. Events with the
// same start time keep their insertion order.
func (s *EventStore) List(filter ListFilter) []domain.Event {
	s.mu.Lock()
	events := slices.Clone(s.events)
	s.mu.Unlock()

	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return a.StartTime.Compare(b.StartTime.Time)
	})

	if filter.Today {
		now := s.now().In(s.loc)
		events = lo.Filter(events, func(e domain.Event, _ int) bool {
			return domain.SameDate(now, e.StartTime.Time)
		})
	}
	return events
}

// ListPage returns one page of List along with the total number of matching events.
func (s *EventStore) ListPage(filter ListFilter, p domain.PaginationParams) ([]domain.Event, int) {
	events := s.List(filter)
	from, to := p.Window(len(events))
	return events[from:to], len(events)
}

// Days returns List partitioned into runs sharing a calendar date.
func (s *EventStore) Days(filter ListFilter) []domain.DayGroup {
	return domain.GroupByDay(s.List(filter))
}

// Rates returns a copy of the rate table.
func (s *EventStore) Rates() domain.RateTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rates.Clone()
}

// SetRate sets the multiplier for code. The rate must be positive.
func (s *EventStore) SetRate(code string, rate decimal.Decimal) (string, error) {
	code = domain.NormalizeCurrency(code, "")
	if len(code) != 3 {
		return "", fmt.Errorf("service.EventStore.SetRate: %w: currency code must have 3 letters", domain.ErrValidation)
	}
	if !rate.IsPositive() {
		return "", fmt.Errorf("service.EventStore.SetRate: %w: rate must be positive", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[code] = rate
	s.commitLocked("rate")
	return code, nil
}

// EnsureRate registers code at 1.0 if the table has no entry for it yet.
func (s *EventStore) EnsureRate(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensureRateLocked(domain.NormalizeCurrency(code, s.defaultCurrency)) {
		s.commitLocked("rate")
	}
}

// Snapshot returns a copy of the events, in insertion order, and the rate table.
func (s *EventStore) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Replace swaps the whole store content for events and returns the events as
// committed, with any missing or repeated ids already reassigned. A nil rates
// keeps the current table. Callers are expected to have validated events.
func (s *EventStore) Replace(events []domain.Event, rates domain.RateTable) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = uniqueIDs(events)
	if rates != nil {
		s.rates = rates.Clone()
	}
	for _, e := range s.events {
		s.ensureRateLocked(e.Currency)
	}
	s.commitLocked("restore")
	return slices.Clone(s.events)
}

func (s *EventStore) ensureRateLocked(code string) bool {
	if code == "" {
		return false
	}
	if _, ok := s.rates[code]; ok {
		return false
	}
	s.rates[code] = decimal.NewFromInt(1)
	s.log.Info("registered new currency", "currency", code)
	return true
}

func (s *EventStore) commitLocked(op string) {
	metrics.Commits.WithLabelValues(op).Inc()
	if s.saver != nil {
		s.saver.Schedule(s.snapshotLocked())
	}
}

func (s *EventStore) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Events: slices.Clone(s.events),
		Rates:  s.rates.Clone(),
	}
}

// uniqueIDs returns a copy of events in which every id is non-empty and
// distinct. The first holder of an id keeps it.
func uniqueIDs(events []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if e.ID == "" || seen[e.ID] {
			e.ID = uuid.NewString()
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}
