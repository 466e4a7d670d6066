package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when no JSON value can be located in model output.
var ErrNoJSON = errors.New("jsonutil: no JSON value found")

// MarshalNoEscape encodes v into JSON without escaping <, >, & into \u003c, etc.
// Model output is full of LaTeX and markdown, which must survive verbatim.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// StripFences removes a surrounding markdown code fence (```json ... ```).
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// language tag on the opening fence
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "[{") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractArray returns the outermost JSON array in model output, tolerating
// code fences and prose around it.
func ExtractArray(s string) ([]byte, error) {
	s = StripFences(s)
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	return []byte(s[start : end+1]), nil
}

// UnmarshalArray locates a JSON array in s and decodes it into v. Invalid
// backslash escapes (LaTeX such as \( or \sqrt) are repaired before a second
// attempt, and leftover double-escaped unicode sequences are unescaped.
func UnmarshalArray(s string, v any) error {
	raw, err := ExtractArray(s)
	if err != nil {
		return err
	}
	var anyVal any
	if err := json.Unmarshal(raw, &anyVal); err != nil {
		if err2 := json.Unmarshal(repairEscapes(raw), &anyVal); err2 != nil {
			return err
		}
	}
	norm, err := MarshalNoEscape(deepUnescape(anyVal))
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

var escapeSeq = regexp.MustCompile(`\\.`)

// repairEscapes doubles every backslash that does not start a valid JSON
// escape.
func repairEscapes(raw []byte) []byte {
	return escapeSeq.ReplaceAllFunc(raw, func(m []byte) []byte {
		switch m[1] {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			return m
		}
		return append([]byte{'\\'}, m...)
	})
}

var unicodeEscape = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

// unescapeUnicode converts leftover escapes like "\u003e" into characters and
// leaves every other backslash (LaTeX) alone.
func unescapeUnicode(s string) string {
	return unicodeEscape.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
}

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		return unescapeUnicode(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
