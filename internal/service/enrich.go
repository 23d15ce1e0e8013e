package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/extract"
	"github.com/pkordes/trip-ledger/internal/metrics"
)

// ImageFinder is the reference image collaborator. It returns at most one
// image URL for term; any failure is reported as "no image".
type ImageFinder interface {
	Find(ctx context.Context, term string) (url string, ok bool)
}

// defaultEnrichTimeout bounds one enrichment run, both lookups included.
const defaultEnrichTimeout = 60 * time.Second

// Enricher augments events with must-dos, warnings and an image in the
// background. At most one run per event id is in flight at a time; runs for
// different ids proceed independently.
type Enricher struct {
	store   *EventStore
	gen     TextGenerator
	images  ImageFinder
	log     *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// NewEnricher constructs an Enricher. gen and images may each be nil; the
// corresponding part of the enrichment is then skipped.
func NewEnricher(store *EventStore, gen TextGenerator, images ImageFinder, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{
		store:    store,
		gen:      gen,
		images:   images,
		log:      log,
		timeout:  defaultEnrichTimeout,
		inFlight: make(map[string]struct{}),
	}
}

// Start launches an enrichment run for id and returns immediately.
// started is false when a run for id is already in flight, in which case the
// call is a no-op. Returns domain.ErrNotFound if the event does not exist.
func (e *Enricher) Start(id string) (started bool, err error) {
	event, err := e.store.Get(id)
	if err != nil {
		return false, fmt.Errorf("service.Enricher.Start: %w", err)
	}

	e.mu.Lock()
	if _, busy := e.inFlight[id]; busy {
		e.mu.Unlock()
		return false, nil
	}
	e.inFlight[id] = struct{}{}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer e.finish(id)

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.run(ctx, event)
	}()
	return true, nil
}

// InFlight reports whether a run for id is outstanding.
func (e *Enricher) InFlight(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inFlight[id]
	return ok
}

// Wait blocks until every started run has finished.
func (e *Enricher) Wait() {
	e.wg.Wait()
}

func (e *Enricher) finish(id string) {
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}

// run performs both lookups and merges whatever came back. The event may have
// been edited meanwhile; the patch only touches enrichment fields.
func (e *Enricher) run(ctx context.Context, event domain.Event) {
	var patch domain.EnrichmentPatch

	if e.images != nil {
		if url, ok := e.images.Find(ctx, imageTerm(event)); ok {
			patch.ImageURL = url
		}
	}

	if e.gen != nil {
		tips, err := e.lookupTips(ctx, event)
		if err != nil {
			e.log.Warn("enrichment lookup failed", "event_id", event.ID, "error", err)
		} else {
			patch.MustDos = tips.MustDos
			patch.Warnings = tips.Warnings
		}
	}

	if patch.ImageURL == "" && len(patch.MustDos) == 0 && len(patch.Warnings) == 0 {
		metrics.Enrichments.WithLabelValues("empty").Inc()
		return
	}
	if !e.store.Enrich(event.ID, patch) {
		metrics.Enrichments.WithLabelValues("gone").Inc()
		e.log.Info("enriched event no longer exists", "event_id", event.ID)
		return
	}
	metrics.Enrichments.WithLabelValues("ok").Inc()
	e.log.Info("event enriched", "event_id", event.ID,
		"image", patch.ImageURL != "", "must_dos", len(patch.MustDos), "warnings", len(patch.Warnings))
}

type tips struct {
	MustDos  []string `json:"mustDos"`
	Warnings []string `json:"warnings"`
}

func (e *Enricher) lookupTips(ctx context.Context, event domain.Event) (tips, error) {
	reply, err := e.gen.Generate(ctx, enrichmentPrompt(event))
	if err != nil {
		return tips{}, err
	}
	raw, err := extract.Extract(reply)
	if err != nil {
		return tips{}, err
	}
	var t tips
	if err := json.Unmarshal(raw, &t); err != nil {
		return tips{}, &extract.Error{Raw: reply}
	}
	return t, nil
}

func imageTerm(event domain.Event) string {
	if event.Location != "" {
		return event.Location
	}
	return event.Title
}

func enrichmentPrompt(event domain.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A traveller plans: %q", event.Title)
	if event.Location != "" {
		fmt.Fprintf(&b, " at %q", event.Location)
	}
	fmt.Fprintf(&b, " on %s (%s).\n", event.StartTime.Format("Monday 2 January 2006 15:04"), event.Type)
	b.WriteString(`Reply with a JSON object only:
{"mustDos": [up to 3 short highlights not to miss], "warnings": [up to 3 short practical warnings]}
`)
	return b.String()
}
