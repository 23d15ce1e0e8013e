package domain

import "errors"

// ErrNotFound is returned by store operations that reference an unknown event id.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a draft fails business rule validation
// (e.g. missing title, unparseable start time, negative cost).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrExtraction is returned when no structured value could be recovered from
// a block of text (service output or pasted backup).
var ErrExtraction = errors.New("no structured data found")

// ErrFormat is returned when text parsed cleanly but does not have the shape
// of a backup document (e.g. "events" missing or not a list).
var ErrFormat = errors.New("invalid backup format")
