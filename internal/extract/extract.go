// Package extract recovers a structured JSON value from loosely formatted text:
// generative service replies wrapped in prose or code fences, and backup
// documents pasted by hand.
package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// Error reports that no structured value could be recovered. Raw keeps the
// original input for diagnostics.
type Error struct {
	Raw string
}

func (e *Error) Error() string {
	return domain.ErrExtraction.Error()
}

// Unwrap lets errors.Is match domain.ErrExtraction.
func (e *Error) Unwrap() error {
	return domain.ErrExtraction
}

// fenceLineRe matches a line holding only a code fence marker with an
// optional info string, e.g. ```json. A JSON string cannot span lines, so
// removing such lines never touches a payload value.
var fenceLineRe = regexp.MustCompile("(?m)^[ \t]*(```|~~~)[A-Za-z0-9_+-]*[ \t]*\r?$")

// Extract recovers a JSON value from text produced by a third-party service.
// It tries, in order: the text as is, the text with fence lines removed, then
// the first outermost {...} or [...] span. The relaxed grammar is never used
// here.
func Extract(text string) (json.RawMessage, error) {
	if v, ok := strict(text); ok {
		return v, nil
	}
	return nil, &Error{Raw: text}
}

// ExtractRelaxed is Extract followed, as a last resort, by the relaxed
// object-literal grammar (unquoted keys, single quotes, trailing commas).
// Use it only on text the user supplied as a backup.
func ExtractRelaxed(text string) (json.RawMessage, error) {
	if v, ok := strict(text); ok {
		return v, nil
	}
	cleaned := stripFences(text)
	for _, candidate := range append(spans(cleaned), cleaned) {
		if v, err := parseRelaxed(candidate); err == nil {
			return v, nil
		}
	}
	return nil, &Error{Raw: text}
}

func strict(text string) (json.RawMessage, bool) {
	if v, ok := parseStrict(text); ok {
		return v, true
	}
	cleaned := stripFences(text)
	if v, ok := parseStrict(cleaned); ok {
		return v, true
	}
	for _, candidate := range spans(cleaned) {
		if v, ok := parseStrict(candidate); ok {
			return v, true
		}
	}
	return nil, false
}

func stripFences(text string) string {
	return strings.TrimSpace(fenceLineRe.ReplaceAllString(text, ""))
}

func parseStrict(s string) (json.RawMessage, bool) {
	b := bytes.TrimSpace([]byte(s))
	if len(b) == 0 || !json.Valid(b) {
		return nil, false
	}
	return json.RawMessage(b), true
}

// spans returns candidate structural spans of s: the greedy span from the
// first opening bracket to the last matching closer, then the balanced span
// starting at the same opener when it differs.
func spans(s string) []string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	var out []string
	if end := strings.LastIndexByte(s, closer); end > start {
		out = append(out, s[start:end+1])
	}
	if end, ok := balancedEnd(s, start); ok {
		if span := s[start : end+1]; len(out) == 0 || out[0] != span {
			out = append(out, span)
		}
	}
	return out
}

// balancedEnd finds the index closing the bracket at s[start], skipping
// brackets inside quoted strings.
func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
