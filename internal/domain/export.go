package domain

// ExportRow is a single row in the itinerary and expense export.
// It is a flat view of one event with its converted cost, in itinerary order.
type ExportRow struct {
	EventID  string
	Date     string // "2006-01-02"
	Time     string // "15:04"
	EndTime  string // empty when the event has no end
	Type     string
	Title    string
	Location string

	// Cost fields. BaseAmount is Cost multiplied by Rate.
	Cost       string
	Currency   string
	Rate       string
	BaseAmount string
	CashOnly   bool
}
