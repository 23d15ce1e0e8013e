package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/metrics"
	"github.com/pkordes/trip-ledger/internal/repo"
)

// DefaultSaveDelay is the quiescence window used when none is configured.
const DefaultSaveDelay = 500 * time.Millisecond

// saveTimeout bounds a single write to durable storage.
const saveTimeout = 10 * time.Second

// Saver coalesces store snapshots and writes the latest one once no new
// snapshot has arrived for the configured delay. Each Schedule cancels the
// pending timer and starts a new one. A mutation made inside the last window
// is lost if the process dies before the timer fires.
type Saver struct {
	repo  repo.SnapshotRepo
	delay time.Duration
	log   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending *domain.Snapshot

	// writeMu serializes writes so snapshots reach storage in the order they
	// were taken.
	writeMu sync.Mutex
}

// NewSaver constructs a Saver writing to r after delay of quiescence.
func NewSaver(r repo.SnapshotRepo, delay time.Duration, log *slog.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Saver{repo: r, delay: delay, log: log}
}

// Schedule records snap as the state to persist and restarts the quiescence timer.
func (s *Saver) Schedule(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &snap
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		_ = s.Flush(context.Background())
	})
}

// Flush writes the pending snapshot immediately, if any. Call it on shutdown.
func (s *Saver) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if snap == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, *snap); err != nil {
		metrics.Saves.WithLabelValues("error").Inc()
		s.log.Error("failed to save snapshot", "error", err, "events", len(snap.Events))
		return fmt.Errorf("service.Saver.Flush: %w", err)
	}
	metrics.Saves.WithLabelValues("ok").Inc()
	s.log.Debug("snapshot saved", "events", len(snap.Events), "rates", len(snap.Rates))
	return nil
}
