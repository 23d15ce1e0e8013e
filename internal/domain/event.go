package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Event is a single committed itinerary item.
// ID is assigned by the store and never changes afterwards. EndTime is nil
// when the item has no known end.
type Event struct {
	ID         string
	Title      string
	Location   string
	StartTime  Timestamp
	EndTime    *Timestamp
	Type       EventType
	Cost       decimal.Decimal
	Currency   string
	IsCashOnly bool

	// Enrichment fields, filled asynchronously.
	ImageURL string
	MustDos  []string
	Warnings []string

	// Transport fields, meaningful only when Type is EventTransport.
	TransportMode TransportMode
	SeatInfo      string
	Platform      string
	TransferInfo  string
	TicketFileRef string
}

// Draft is candidate event data as submitted by a user, a suggestion or a
// backup document. Times are raw text; the store parses and validates them.
//
// ID is only honoured when a backup is restored.
type Draft struct {
	ID         string
	Title      string
	Location   string
	StartTime  string
	EndTime    string
	Type       string
	Cost       decimal.Decimal
	Currency   string
	IsCashOnly bool

	ImageURL string
	MustDos  []string
	Warnings []string

	TransportMode string
	SeatInfo      string
	Platform      string
	TransferInfo  string
	TicketFileRef string
}

// EnrichmentPatch carries the fields an enrichment lookup may fill in.
// Nil or empty fields leave the existing values alone.
type EnrichmentPatch struct {
	ImageURL string
	MustDos  []string
	Warnings []string
}

// eventJSON is the wire shape shared by the API, storage and backup documents.
type eventJSON struct {
	ID            json.RawMessage `json:"id,omitempty"`
	Title         string          `json:"title"`
	Location      string          `json:"location,omitempty"`
	StartTime     string          `json:"startTime"`
	EndTime       string          `json:"endTime,omitempty"`
	Type          string          `json:"type"`
	Cost          json.RawMessage `json:"cost,omitempty"`
	Currency      string          `json:"currency"`
	IsCashOnly    bool            `json:"isCashOnly"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	MustDos       []string        `json:"mustDos,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
	TransportMode string          `json:"transportMode,omitempty"`
	SeatInfo      string          `json:"seatInfo,omitempty"`
	Platform      string          `json:"platform,omitempty"`
	TransferInfo  string          `json:"transferInfo,omitempty"`
	TicketFileRef string          `json:"ticketFileRef,omitempty"`
}

// MarshalJSON implements json.Marshaler. Cost is written as a JSON number.
func (e Event) MarshalJSON() ([]byte, error) {
	id, err := json.Marshal(e.ID)
	if err != nil {
		return nil, err
	}
	w := eventJSON{
		ID:            id,
		Title:         e.Title,
		Location:      e.Location,
		StartTime:     e.StartTime.String(),
		Type:          string(e.Type),
		Cost:          json.RawMessage(e.Cost.String()),
		Currency:      e.Currency,
		IsCashOnly:    e.IsCashOnly,
		ImageURL:      e.ImageURL,
		MustDos:       e.MustDos,
		Warnings:      e.Warnings,
		TransportMode: string(e.TransportMode),
		SeatInfo:      e.SeatInfo,
		Platform:      e.Platform,
		TransferInfo:  e.TransferInfo,
		TicketFileRef: e.TicketFileRef,
	}
	if e.EndTime != nil {
		w.EndTime = e.EndTime.String()
	}
	return json.Marshal(w)
}

// Draft returns the event as a draft carrying its id, suitable for an update
// or a re-validation.
func (e Event) Draft() Draft {
	d := Draft{
		ID:            e.ID,
		Title:         e.Title,
		Location:      e.Location,
		StartTime:     e.StartTime.String(),
		Type:          string(e.Type),
		Cost:          e.Cost,
		Currency:      e.Currency,
		IsCashOnly:    e.IsCashOnly,
		ImageURL:      e.ImageURL,
		MustDos:       e.MustDos,
		Warnings:      e.Warnings,
		TransportMode: string(e.TransportMode),
		SeatInfo:      e.SeatInfo,
		Platform:      e.Platform,
		TransferInfo:  e.TransferInfo,
		TicketFileRef: e.TicketFileRef,
	}
	if e.EndTime != nil {
		d.EndTime = e.EndTime.String()
	}
	return d
}

// Normalize validates d and converts it into an Event. The id is copied as is;
// assigning a fresh one is the store's job.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - StartTime must parse; EndTime, when present, must parse too. An end
//     before the start is tolerated.
//   - Type must be one of the known kinds; TransportMode is checked only for
//     transport events.
//   - Cost must not be negative. Currency is upper-cased and defaults to
//     defaultCurrency.
func (d Draft) Normalize(defaultCurrency string, loc *time.Location) (Event, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Event{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	start, err := ParseTimestamp(d.StartTime, loc)
	if err != nil {
		return Event{}, fmt.Errorf("%w: startTime: %v", ErrValidation, err)
	}
	var end *Timestamp
	if strings.TrimSpace(d.EndTime) != "" {
		ts, err := ParseTimestamp(d.EndTime, loc)
		if err != nil {
			return Event{}, fmt.Errorf("%w: endTime: %v", ErrValidation, err)
		}
		end = &ts
	}
	typ, err := ParseEventType(d.Type)
	if err != nil {
		return Event{}, err
	}
	mode := TransportMode(strings.ToLower(strings.TrimSpace(d.TransportMode)))
	if typ == EventTransport {
		if mode, err = ParseTransportMode(d.TransportMode); err != nil {
			return Event{}, err
		}
	}
	if d.Cost.IsNegative() {
		return Event{}, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}

	return Event{
		ID:            d.ID,
		Title:         title,
		Location:      strings.TrimSpace(d.Location),
		StartTime:     start,
		EndTime:       end,
		Type:          typ,
		Cost:          d.Cost,
		Currency:      NormalizeCurrency(d.Currency, defaultCurrency),
		IsCashOnly:    d.IsCashOnly,
		ImageURL:      d.ImageURL,
		MustDos:       d.MustDos,
		Warnings:      d.Warnings,
		TransportMode: mode,
		SeatInfo:      d.SeatInfo,
		Platform:      d.Platform,
		TransferInfo:  d.TransferInfo,
		TicketFileRef: d.TicketFileRef,
	}, nil
}

// UnmarshalJSON implements json.Unmarshaler.
// A missing, null or non-numeric cost becomes zero; numeric strings are accepted.
// A numeric id is kept as its literal text.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var w eventJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Draft{
		ID:            rawID(w.ID),
		Title:         w.Title,
		Location:      w.Location,
		StartTime:     w.StartTime,
		EndTime:       w.EndTime,
		Type:          w.Type,
		Cost:          ParseCost(w.Cost),
		Currency:      w.Currency,
		IsCashOnly:    w.IsCashOnly,
		ImageURL:      w.ImageURL,
		MustDos:       w.MustDos,
		Warnings:      w.Warnings,
		TransportMode: w.TransportMode,
		SeatInfo:      w.SeatInfo,
		Platform:      w.Platform,
		TransferInfo:  w.TransferInfo,
		TicketFileRef: w.TicketFileRef,
	}
	return nil
}

// ParseCost reads a JSON number or numeric string. Anything else is zero.
func ParseCost(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
	} else {
		s = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if _, err := decimal.NewFromString(string(raw)); err != nil {
		return ""
	}
	return string(raw)
}
