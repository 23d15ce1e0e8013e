// Package domain contains the core data types for the trip ledger.
// This package performs no I/O and is imported by every other internal
// package (repo, service, handler).
package domain

import (
	"fmt"
	"strings"
)

// EventType is the closed set of itinerary item kinds.
type EventType string

const (
	EventActivity  EventType = "activity"
	EventTransport EventType = "transport"
	EventDining    EventType = "dining"
	EventLodging   EventType = "lodging"
)

// ParseEventType normalizes s into an EventType. An empty string yields
// EventActivity.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return EventActivity, nil
	case EventActivity, EventTransport, EventDining, EventLodging:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown event type %q", ErrValidation, s)
	}
}

// TransportMode qualifies a transport event.
type TransportMode string

const (
	TransportTrain  TransportMode = "train"
	TransportBus    TransportMode = "bus"
	TransportFlight TransportMode = "flight"
)

// ParseTransportMode normalizes s into a TransportMode. An empty string is
// allowed and means "unspecified".
func ParseTransportMode(s string) (TransportMode, error) {
	switch m := TransportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", TransportTrain, TransportBus, TransportFlight:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown transport mode %q", ErrValidation, s)
	}
}

// NormalizeCurrency upper-cases and trims code, falling back to def when
// code is blank.
func NormalizeCurrency(code, def string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return strings.ToUpper(strings.TrimSpace(def))
	}
	return code
}
