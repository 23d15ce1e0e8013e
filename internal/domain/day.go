package domain

// DayGroup is a run of consecutive events sharing a calendar date.
type DayGroup struct {
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}

// GroupByDay partitions events, assumed sorted by start time, into runs that
// share a calendar date. A new run starts exactly when the date changes.
func GroupByDay(events []Event) []DayGroup {
	groups := []DayGroup{}
	for _, e := range events {
		date := e.StartTime.Date()
		if n := len(groups); n > 0 && groups[n-1].Date == date {
			groups[n-1].Events = append(groups[n-1].Events, e)
			continue
		}
		groups = append(groups, DayGroup{Date: date, Events: []Event{e}})
	}
	return groups
}
