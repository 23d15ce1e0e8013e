package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseRelaxed reads an object-literal style document: unquoted keys,
// single-quoted strings, comments and trailing commas. The text is normalized
// into YAML flow syntax and decoded by a YAML parser; nothing is evaluated.
// Only a mapping or a sequence is accepted at the top level.
func parseRelaxed(s string) (json.RawMessage, error) {
	src := normalizeLiteral(s)
	if src == "" {
		return nil, fmt.Errorf("empty input")
	}
	var v any
	if err := yaml.Unmarshal([]byte(src), &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, map[any]any, []any:
	default:
		return nil, fmt.Errorf("top-level value is %T, want mapping or sequence", v)
	}
	plain, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(plain)
}

// normalizeLiteral rewrites the parts of an object literal YAML flow syntax
// does not accept: comments are dropped, tabs become spaces, a space is put
// after every key separator and trailing commas before a closing bracket are
// removed.
// Double-quoted strings are copied untouched. Single-quoted strings are
// rewritten as double-quoted ones so backslash escapes such as \' and \n keep
// their object-literal meaning.
func normalizeLiteral(s string) string {
	var b strings.Builder
	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote == '\'' {
			switch {
			case escaped:
				escaped = false
				if c == '\'' {
					b.WriteByte(c)
				} else {
					b.WriteByte('\\')
					b.WriteByte(c)
				}
			case c == '\\':
				escaped = true
			case c == '\'':
				quote = 0
				b.WriteByte('"')
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
			continue
		}
		if quote != 0 {
			b.WriteByte(c)
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
		switch {
		case c == '"':
			quote = c
			b.WriteByte(c)
		case c == '\'':
			quote = c
			b.WriteByte('"')
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 3
			}
			b.WriteByte(' ')
		case c == ':':
			b.WriteString(": ")
		case c == '\t':
			b.WriteByte(' ')
		case c == ',' && closesNext(s[i+1:]):
			// trailing comma
		case c == ';' && strings.TrimSpace(s[i+1:]) == "":
			// statement terminator
		default:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// closesNext reports whether the next non-space byte of rest closes a bracket.
func closesNext(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	return rest != "" && (rest[0] == '}' || rest[0] == ']')
}

// toJSONValue converts a decoded YAML tree into values encoding/json accepts.
func toJSONValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			conv, err := toJSONValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			conv, err := toJSONValue(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = conv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			conv, err := toJSONValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	default:
		return t, nil
	}
}
