package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Suggestion is a proposed itinerary item returned by the generative service.
// Day is a zero-based offset from the trip start date and Time a time of day
// such as "09:30". It is never persisted.
type Suggestion struct {
	Day      int             `json:"day"`
	Time     string          `json:"time"`
	Title    string          `json:"title"`
	Location string          `json:"location,omitempty"`
	Type     string          `json:"type,omitempty"`
	Cost     decimal.Decimal `json:"-"`
	Currency string          `json:"currency,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

type suggestionJSON struct {
	Day      int             `json:"day"`
	Time     string          `json:"time"`
	Title    string          `json:"title"`
	Location string          `json:"location,omitempty"`
	Type     string          `json:"type,omitempty"`
	Cost     json.RawMessage `json:"cost,omitempty"`
	Currency string          `json:"currency,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(suggestionJSON{
		Day:      s.Day,
		Time:     s.Time,
		Title:    s.Title,
		Location: s.Location,
		Type:     s.Type,
		Cost:     json.RawMessage(s.Cost.String()),
		Currency: s.Currency,
		Reason:   s.Reason,
	})
}

// UnmarshalJSON implements json.Unmarshaler with the same cost coercion as Draft.
func (s *Suggestion) UnmarshalJSON(data []byte) error {
	var w suggestionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Suggestion{
		Day:      w.Day,
		Time:     w.Time,
		Title:    w.Title,
		Location: w.Location,
		Type:     w.Type,
		Cost:     ParseCost(w.Cost),
		Currency: w.Currency,
		Reason:   w.Reason,
	}
	return nil
}
