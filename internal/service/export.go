package service

import (
	"github.com/pkordes/trip-ledger/internal/domain"
)

// ExportService assembles the flat itinerary and expense export, and the
// calendar entries of single events.
type ExportService struct {
	store *EventStore
	base  string
}

// NewExportService constructs an ExportService reading from store. Converted
// amounts are expressed in base.
func NewExportService(store *EventStore, base string) *ExportService {
	return &ExportService{store: store, base: domain.NormalizeCurrency(base, "HKD")}
}

// Base returns the currency converted amounts are expressed in.
func (s *ExportService) Base() string {
	return s.base
}

// Export returns one ExportRow per event in itinerary order.
func (s *ExportService) Export() []domain.ExportRow {
	events := s.store.List(ListFilter{})
	rates := s.store.Rates()

	rows := make([]domain.ExportRow, 0, len(events))
	for _, e := range events {
		rate := rates.Rate(e.Currency)
		row := domain.ExportRow{
			EventID:    e.ID,
			Date:       e.StartTime.Date(),
			Time:       e.StartTime.Format("15:04"),
			Type:       string(e.Type),
			Title:      e.Title,
			Location:   e.Location,
			Cost:       e.Cost.String(),
			Currency:   e.Currency,
			Rate:       rate.String(),
			BaseAmount: e.Cost.Mul(rate).StringFixed(2),
			CashOnly:   e.IsCashOnly,
		}
		if e.EndTime != nil {
			row.EndTime = e.EndTime.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// Expenses returns the expense summary of every committed event.
func (s *ExportService) Expenses() domain.ExpenseSummary {
	return Summarize(s.store.List(ListFilter{}), s.store.Rates(), s.base)
}

// Calendar returns the calendar entry for a single event.
// Returns domain.ErrNotFound if the event does not exist.
func (s *ExportService) Calendar(id string) (domain.CalendarEntry, error) {
	e, err := s.store.Get(id)
	if err != nil {
		return domain.CalendarEntry{}, err
	}
	return domain.NewCalendarEntry(e), nil
}
