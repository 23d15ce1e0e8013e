package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// Storage keys. Each holds the JSON serialization of one half of the state.
const (
	EventsKey = "trip_events"
	RatesKey  = "trip_rates"
)

// SnapshotRepo defines durable persistence of the whole store.
// The service layer depends on this interface so it can be tested with an
// in-memory KV or a mock.
type SnapshotRepo interface {
	// Load reads the last saved state. Absent keys yield empty defaults;
	// malformed keys or entries are logged and skipped. An error is returned
	// only when the underlying storage fails.
	Load(ctx context.Context) (domain.Snapshot, error)

	// Save writes both keys.
	Save(ctx context.Context, snap domain.Snapshot) error
}

type kvSnapshotRepo struct {
	kv  KV
	loc *time.Location
	log *slog.Logger
}

// NewSnapshotRepo constructs a SnapshotRepo on top of kv. Stored times carry
// no zone; they are read back in loc, which must be the store's location.
// A nil loc means time.Local.
func NewSnapshotRepo(kv KV, loc *time.Location, log *slog.Logger) SnapshotRepo {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &kvSnapshotRepo{kv: kv, loc: loc, log: log}
}

func (r *kvSnapshotRepo) Load(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{Events: []domain.Event{}, Rates: domain.RateTable{}}

	raw, ok, err := r.kv.Get(ctx, EventsKey)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("repo.SnapshotRepo.Load: %w", err)
	}
	if ok {
		snap.Events = r.decodeEvents(raw)
	}

	raw, ok, err = r.kv.Get(ctx, RatesKey)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("repo.SnapshotRepo.Load: %w", err)
	}
	if ok {
		var rates domain.RateTable
		if err := json.Unmarshal([]byte(raw), &rates); err != nil {
			r.log.Warn("skipping malformed stored rates", "key", RatesKey, "error", err)
		} else {
			snap.Rates = rates
		}
	}

	return snap, nil
}

// decodeEvents reads the stored event list entry by entry so one bad entry
// does not discard the rest.
func (r *kvSnapshotRepo) decodeEvents(raw string) []domain.Event {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		r.log.Warn("skipping malformed stored events", "key", EventsKey, "error", err)
		return []domain.Event{}
	}
	events := make([]domain.Event, 0, len(items))
	for i, item := range items {
		var d domain.Draft
		if err := json.Unmarshal(item, &d); err != nil {
			r.log.Warn("skipping malformed stored event", "key", EventsKey, "index", i, "error", err)
			continue
		}
		e, err := d.Normalize("", r.loc)
		if err != nil {
			r.log.Warn("skipping invalid stored event", "key", EventsKey, "index", i, "error", err)
			continue
		}
		events = append(events, e)
	}
	return events
}

func (r *kvSnapshotRepo) Save(ctx context.Context, snap domain.Snapshot) error {
	events := snap.Events
	if events == nil {
		events = []domain.Event{}
	}
	rates := snap.Rates
	if rates == nil {
		rates = domain.RateTable{}
	}

	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("repo.SnapshotRepo.Save: events: %w", err)
	}
	ratesJSON, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("repo.SnapshotRepo.Save: rates: %w", err)
	}

	if err := r.kv.Put(ctx, EventsKey, string(eventsJSON)); err != nil {
		return fmt.Errorf("repo.SnapshotRepo.Save: %w", err)
	}
	if err := r.kv.Put(ctx, RatesKey, string(ratesJSON)); err != nil {
		return fmt.Errorf("repo.SnapshotRepo.Save: %w", err)
	}
	return nil
}
