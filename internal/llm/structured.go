package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseObject extracts the first JSON object from raw model output. It
// tolerates markdown fences, surrounding prose, comments and ".5"-style
// numbers. On failure it returns an empty, non-nil map together with an
// ErrInvalidOutput error so callers can log and carry on with defaults.
func ParseObject(raw string) (map[string]json.RawMessage, error) {
	obj := map[string]json.RawMessage{}

	block := extractBlock(stripCodeFences(raw), '{', '}')
	if block == "" {
		return obj, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}
	block = normalizeLeadingDecimalNumbers(stripJSONComments(block))

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return obj, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if parsed == nil {
		return obj, fmt.Errorf("%w: null object", ErrInvalidOutput)
	}
	return parsed, nil
}

// Field decodes obj[key] into T. Missing keys and values of the wrong shape
// report false and leave the zero value.
func Field[T any](obj map[string]json.RawMessage, key string) (T, bool) {
	var v T
	data, ok := obj[key]
	if !ok || len(data) == 0 || string(data) == "null" {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// DecodeList reads the array stored under key (or a bare top-level array)
// and decodes it element by element. Elements that fail to decode or that
// valid rejects are dropped. The returned slice is never nil. The error is
// non-nil when the output had no usable array at all.
func DecodeList[T any](raw, key string, valid func(*T) bool) ([]T, error) {
	out := []T{}

	var items []json.RawMessage
	cleaned := strings.TrimSpace(stripCodeFences(raw))
	if strings.HasPrefix(cleaned, "[") {
		block := normalizeLeadingDecimalNumbers(stripJSONComments(extractBlock(cleaned, '[', ']')))
		if err := json.Unmarshal([]byte(block), &items); err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	} else {
		obj, err := ParseObject(raw)
		if err != nil {
			return out, err
		}
		list, ok := Field[[]json.RawMessage](obj, key)
		if !ok {
			return out, fmt.Errorf("%w: missing %q array", ErrInvalidOutput, key)
		}
		items = list
	}

	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		if valid != nil && !valid(&v) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// stripCodeFences removes markdown code fence lines (```json ... ```).
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

// extractBlock finds the first balanced openCh...closeCh block in s, ignoring
// delimiters inside JSON strings.
func extractBlock(s string, openCh, closeCh byte) string {
	start := strings.IndexByte(s, openCh)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// stripJSONComments removes // and /* */ comments outside string values.
func stripJSONComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}
		if inString {
			b.WriteByte(c)
			continue
		}

		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			for i+1 < len(s) && s[i+1] != '\n' {
				i++
			}
			continue
		}
		if c == '/' && i+1 < len(s) && s[i+1] == '*' {
			i += 2
			for i+1 < len(s) {
				if s[i] == '*' && s[i+1] == '/' {
					i++
					break
				}
				i++
			}
			continue
		}

		b.WriteByte(c)
	}

	return b.String()
}

// normalizeLeadingDecimalNumbers rewrites ".8" and "-.3" into "0.8" and
// "-0.3" outside string values.
func normalizeLeadingDecimalNumbers(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}
		if inString {
			b.WriteByte(c)
			continue
		}

		if c == '.' && i+1 < len(s) && isDigit(s[i+1]) && isNumericBoundary(prevNonSpace(s, i-1)) {
			b.WriteByte('0')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func prevNonSpace(s string, i int) byte {
	for ; i >= 0; i-- {
		switch s[i] {
		case ' ', '\n', '\r', '\t':
			continue
		}
		return s[i]
	}
	return 0
}

func isNumericBoundary(c byte) bool {
	switch c {
	case 0, ':', ',', '[', '{', '-':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
