package domain

import "time"

// Snapshot is a complete copy of the store: events in insertion order and the
// currency rate table.
type Snapshot struct {
	Events []Event
	Rates  RateTable
}

// Restore is the normalized result of reading a backup document.
// Rates is nil when the document carried no usable rate table, in which case
// the current table must be kept.
type Restore struct {
	Events   []Event
	Rates    RateTable
	Warnings []string
}

// BackupDocument is the portable export format.
type BackupDocument struct {
	App       string    `json:"app"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Events    []Event   `json:"events"`
	Rates     RateTable `json:"rates"`
}
