package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/extract"
)

// TextGenerator is the generative text collaborator. Generate returns free
// text that is expected to contain a JSON payload somewhere.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrNoGenerator is returned when an operation needs a text generator but
// none is configured.
var ErrNoGenerator = errors.New("no text generator configured")

var timeOfDayLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

// MapSuggestion turns s into a draft anchored at tripStart plus s.Day days,
// at the suggestion's time of day. The end time is left unset and a missing
// currency becomes defaultCurrency. It has no side effects; registering a new
// currency is the caller's job.
func MapSuggestion(s domain.Suggestion, tripStart time.Time, defaultCurrency string) (domain.Draft, error) {
	if s.Day < 0 {
		return domain.Draft{}, fmt.Errorf("%w: day offset must not be negative", domain.ErrValidation)
	}
	clock, err := parseTimeOfDay(s.Time)
	if err != nil {
		return domain.Draft{}, err
	}

	y, m, d := tripStart.Date()
	start := time.Date(y, m, d+s.Day, clock.Hour(), clock.Minute(), clock.Second(), 0, tripStart.Location())

	return domain.Draft{
		Title:     s.Title,
		Location:  s.Location,
		StartTime: domain.NewTimestamp(start).String(),
		Type:      s.Type,
		Cost:      s.Cost,
		Currency:  domain.NormalizeCurrency(s.Currency, defaultCurrency),
	}, nil
}

func parseTimeOfDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised time of day %q", domain.ErrValidation, s)
}

// SuggestRequest describes the trip a day plan is requested for.
type SuggestRequest struct {
	Destination string
	TripStart   time.Time
	Days        int
	Preferences string
}

// Planner asks the generative service for day-plan suggestions and commits
// the accepted ones to the store.
type Planner struct {
	store *EventStore
	gen   TextGenerator
	log   *slog.Logger
}

// NewPlanner constructs a Planner. gen may be nil, in which case Suggest
// returns ErrNoGenerator.
func NewPlanner(store *EventStore, gen TextGenerator, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{store: store, gen: gen, log: log}
}

// Suggest requests a day plan and decodes the suggestions from the reply.
// Returns an error wrapping domain.ErrExtraction when the reply carries no
// usable list of suggestions.
func (p *Planner) Suggest(ctx context.Context, req SuggestRequest) ([]domain.Suggestion, error) {
	if p.gen == nil {
		return nil, ErrNoGenerator
	}
	reply, err := p.gen.Generate(ctx, suggestionPrompt(req, p.store.DefaultCurrency()))
	if err != nil {
		return nil, fmt.Errorf("service.Planner.Suggest: %w", err)
	}

	raw, err := extract.Extract(reply)
	if err != nil {
		p.log.Warn("unusable suggestion reply", "destination", req.Destination, "reply_len", len(reply))
		return nil, fmt.Errorf("service.Planner.Suggest: %w", err)
	}

	suggestions, err := decodeSuggestions(raw)
	if err != nil {
		return nil, fmt.Errorf("service.Planner.Suggest: %w", err)
	}
	p.log.Info("suggestions received", "destination", req.Destination, "count", len(suggestions))
	return suggestions, nil
}

// Accept maps s onto the trip calendar and commits it. The store registers a
// rate for a currency it has not seen yet.
func (p *Planner) Accept(s domain.Suggestion, tripStart time.Time) (domain.Event, error) {
	y, m, d := tripStart.Date()
	anchor := time.Date(y, m, d, 0, 0, 0, 0, p.store.Location())

	draft, err := MapSuggestion(s, anchor, p.store.DefaultCurrency())
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.Planner.Accept: %w", err)
	}
	event, err := p.store.Create(draft)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.Planner.Accept: %w", err)
	}
	return event, nil
}

// decodeSuggestions accepts either a list of suggestions or an object with a
// "suggestions" list.
func decodeSuggestions(raw json.RawMessage) ([]domain.Suggestion, error) {
	var list []domain.Suggestion
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Suggestions []domain.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Suggestions == nil {
		return nil, &extract.Error{Raw: string(raw)}
	}
	return wrapped.Suggestions, nil
}

func suggestionPrompt(req SuggestRequest, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a %d-day trip to %s starting on %s.\n",
		req.Days, req.Destination, req.TripStart.Format("2006-01-02"))
	if req.Preferences != "" {
		fmt.Fprintf(&b, "Traveller preferences: %s\n", req.Preferences)
	}
	fmt.Fprintf(&b, `Reply with a JSON array only. Each element must have:
  "day": zero-based day offset from the start date,
  "time": time of day as "HH:MM",
  "title", "location",
  "type": one of "activity", "transport", "dining", "lodging",
  "cost": estimated cost as a number,
  "currency": ISO 4217 code (use %s when unsure),
  "reason": one sentence on why it fits the trip.
`, currency)
	return b.String()
}
