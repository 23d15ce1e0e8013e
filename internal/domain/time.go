package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timestamp layouts accepted on input, most specific first. Naive layouts are
// interpreted in the caller's location.
var timestampLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

const (
	minuteLayout = "2006-01-02T15:04"
	secondLayout = "2006-01-02T15:04:05"
	dateLayout   = "2006-01-02"
)

// Timestamp is a wall-clock instant as entered by the traveller.
// It renders without a zone offset, in the location it was parsed in.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, dropping sub-second precision and the monotonic reading.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.Truncate(time.Second).Round(0)}
}

// ParseTimestamp parses s using the accepted layouts. Zone-less values are
// placed in loc; RFC3339 values are converted to loc.
func ParseTimestamp(s string, loc *time.Location) (Timestamp, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return NewTimestamp(t), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewTimestamp(t.In(loc)), nil
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// String renders the timestamp with minute precision, or second precision
// when seconds are set.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	if t.Second() != 0 {
		return t.Format(secondLayout)
	}
	return t.Format(minuteLayout)
}

// Date returns the calendar date ("2006-01-02") of the wall clock.
func (t Timestamp) Date() string {
	return t.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// SameDate reports whether a and b fall on the same calendar date of a's location.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
