package domain

import (
	"fmt"
	"strings"
	"time"
)

// CalendarEntry is what the calendar exporter needs to render one event.
type CalendarEntry struct {
	UID      string
	Start    time.Time
	End      time.Time
	Title    string
	Location string
	Notes    string
}

// defaultEventLength applies when an event has no end time.
const defaultEventLength = time.Hour

// NewCalendarEntry builds the calendar view of e.
func NewCalendarEntry(e Event) CalendarEntry {
	end := e.StartTime.Add(defaultEventLength)
	if e.EndTime != nil {
		end = e.EndTime.Time
	}
	return CalendarEntry{
		UID:      e.ID,
		Start:    e.StartTime.Time,
		End:      end,
		Title:    e.Title,
		Location: e.Location,
		Notes:    calendarNotes(e),
	}
}

func calendarNotes(e Event) string {
	var lines []string
	lines = append(lines, "Type: "+string(e.Type))
	if e.Cost.IsPositive() {
		cost := fmt.Sprintf("Cost: %s %s", e.Cost.String(), e.Currency)
		if e.IsCashOnly {
			cost += " (cash only)"
		}
		lines = append(lines, cost)
	}
	if e.Type == EventTransport {
		if e.TransportMode != "" {
			lines = append(lines, "Mode: "+string(e.TransportMode))
		}
		if e.SeatInfo != "" {
			lines = append(lines, "Seat: "+e.SeatInfo)
		}
		if e.Platform != "" {
			lines = append(lines, "Platform: "+e.Platform)
		}
		if e.TransferInfo != "" {
			lines = append(lines, "Transfer: "+e.TransferInfo)
		}
	}
	for _, m := range e.MustDos {
		lines = append(lines, "Must do: "+m)
	}
	for _, w := range e.Warnings {
		lines = append(lines, "Warning: "+w)
	}
	return strings.Join(lines, "\n")
}
