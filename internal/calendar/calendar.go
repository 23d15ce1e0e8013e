// Package calendar renders itinerary events as iCalendar documents.
package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// ProductID identifies the producer in exported calendars.
const ProductID = "-//trip-ledger//itinerary//EN"

// Render returns an iCalendar document holding one VEVENT per entry.
// stamp is written as DTSTAMP on every event.
func Render(entries []domain.CalendarEntry, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)

	for _, e := range entries {
		ev := cal.AddEvent(e.UID + "@trip-ledger")
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(e.Start.UTC())
		ev.SetEndAt(e.End.UTC())
		ev.SetSummary(e.Title)
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.Notes != "" {
			ev.SetDescription(e.Notes)
		}
	}
	return cal.Serialize()
}
