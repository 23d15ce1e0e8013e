package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/extract"
	"github.com/pkordes/trip-ledger/internal/metrics"
)

// Backup document identity.
const (
	BackupApp     = "trip-ledger"
	BackupVersion = 1
)

// BackupCodec converts between store snapshots and backup documents.
type BackupCodec struct {
	defaultCurrency string
	loc             *time.Location
	now             func() time.Time
}

// NewBackupCodec constructs a codec that normalizes restored events with the
// same defaults as the store.
func NewBackupCodec(defaultCurrency string, loc *time.Location, now func() time.Time) *BackupCodec {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &BackupCodec{defaultCurrency: defaultCurrency, loc: loc, now: now}
}

// Serialize renders snap as an indented backup document.
func (c *BackupCodec) Serialize(snap domain.Snapshot) ([]byte, error) {
	doc := domain.BackupDocument{
		App:       BackupApp,
		Version:   BackupVersion,
		Timestamp: c.now().UTC().Truncate(time.Second),
		Events:    snap.Events,
		Rates:     snap.Rates,
	}
	if doc.Events == nil {
		doc.Events = []domain.Event{}
	}
	if doc.Rates == nil {
		doc.Rates = domain.RateTable{}
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("service.BackupCodec.Serialize: %w", err)
	}
	return out, nil
}

// Deserialize reads text as a backup document. It accepts a full document,
// a bare list of events, or a document without rates, and tolerates prose,
// code fences and object-literal syntax around it.
//
// Errors wrap domain.ErrExtraction when no structure could be found and
// domain.ErrFormat when the structure is not a backup.
func (c *BackupCodec) Deserialize(text string) (domain.Restore, error) {
	raw, err := extract.ExtractRelaxed(text)
	if err != nil {
		return domain.Restore{}, fmt.Errorf("service.BackupCodec.Deserialize: %w", err)
	}

	fields, err := documentFields(raw)
	if err != nil {
		return domain.Restore{}, fmt.Errorf("service.BackupCodec.Deserialize: %w", err)
	}

	events, err := c.decodeEvents(fields["events"])
	if err != nil {
		return domain.Restore{}, fmt.Errorf("service.BackupCodec.Deserialize: %w", err)
	}

	result := domain.Restore{Events: events, Warnings: []string{}}
	if w := provenanceWarning(fields["app"]); w != "" {
		result.Warnings = append(result.Warnings, w)
	}
	if w := versionWarning(fields["version"]); w != "" {
		result.Warnings = append(result.Warnings, w)
	}
	if rawRates, ok := fields["rates"]; ok {
		var rates domain.RateTable
		if err := json.Unmarshal(rawRates, &rates); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("rates ignored, current table kept: %v", err))
		} else {
			result.Rates = rates
		}
	}
	return result, nil
}

// documentFields returns the top-level fields of raw. A bare list is treated
// as the events of an otherwise empty document.
func documentFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) > 0 && raw[0] == '[':
		return map[string]json.RawMessage{"events": raw}, nil
	case len(raw) > 0 && raw[0] == '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFormat, err)
		}
		if _, ok := fields["events"]; !ok {
			return nil, fmt.Errorf("%w: missing \"events\" field", domain.ErrFormat)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("%w: expected an object or a list of events", domain.ErrFormat)
	}
}

func (c *BackupCodec) decodeEvents(raw json.RawMessage) ([]domain.Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: \"events\" must be a list", domain.ErrFormat)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: \"events\": %v", domain.ErrFormat, err)
	}

	events := make([]domain.Event, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: events[%d] is not an object", domain.ErrFormat, i)
		}
		var d domain.Draft
		if err := json.Unmarshal(item, &d); err != nil {
			return nil, fmt.Errorf("%w: events[%d]: %v", domain.ErrFormat, i, err)
		}
		e, err := d.Normalize(c.defaultCurrency, c.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: events[%d]: %s", domain.ErrFormat, i, validationMessage(err))
		}
		events = append(events, e)
	}
	return events, nil
}

func provenanceWarning(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var app string
	if err := json.Unmarshal(raw, &app); err != nil || app != BackupApp {
		return fmt.Sprintf("backup signature %s does not match %q; restoring anyway", string(raw), BackupApp)
	}
	return ""
}

func versionWarning(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Sprintf("unreadable backup version %s", string(raw))
	}
	if v > BackupVersion {
		return fmt.Sprintf("backup version %d is newer than supported version %d", v, BackupVersion)
	}
	return ""
}

// validationMessage strips the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := domain.ErrValidation.Error() + ": "
	if errors.Is(err, domain.ErrValidation) && len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

// BackupService exports the store and restores it wholesale from text.
type BackupService struct {
	store *EventStore
	codec *BackupCodec
	log   *slog.Logger
}

// NewBackupService constructs a BackupService for store.
func NewBackupService(store *EventStore, codec *BackupCodec, log *slog.Logger) *BackupService {
	if log == nil {
		log = slog.Default()
	}
	return &BackupService{store: store, codec: codec, log: log}
}

// Export returns the backup document of the current store state.
func (s *BackupService) Export() ([]byte, error) {
	return s.codec.Serialize(s.store.Snapshot())
}

// Restore replaces the store content with the backup in text. On any error
// the store is left untouched.
func (s *BackupService) Restore(text string) (domain.Restore, error) {
	result, err := s.codec.Deserialize(text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrExtraction):
			metrics.Restores.WithLabelValues("extraction_error").Inc()
		default:
			metrics.Restores.WithLabelValues("format_error").Inc()
		}
		s.log.Warn("restore rejected", "error", err)
		return domain.Restore{}, err
	}

	result.Events = s.store.Replace(result.Events, result.Rates)
	metrics.Restores.WithLabelValues("ok").Inc()
	for _, w := range result.Warnings {
		s.log.Warn("restore warning", "warning", w)
	}
	s.log.Info("store restored", "events", len(result.Events), "rates_replaced", result.Rates != nil)
	return result, nil
}
