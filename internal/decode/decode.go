// Package decode extracts structured data embedded in free-text LLM output.
// Models routinely wrap JSON in prose or markdown fences; callers that need a
// verdict out of such text use Extract and treat a failure as a typed,
// recoverable condition rather than a fault.
package decode

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error reports why no usable structured block could be decoded.
type Error struct {
	Reason string
	Raw    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("decoding structured response: %s", e.Reason)
}

// Extract finds the first balanced brace-delimited block in raw and
// unmarshals it into T. Markdown code fences around the payload are
// tolerated. On failure it returns a *Error describing the reason.
func Extract[T any](raw string) (T, error) {
	var result T

	block, ok := firstObject(stripFences(raw))
	if !ok {
		return result, &Error{Reason: "no brace-delimited block found", Raw: raw}
	}

	if err := json.Unmarshal([]byte(block), &result); err != nil {
		return result, &Error{Reason: err.Error(), Raw: raw}
	}

	return result, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, "```"); idx != -1 {
		raw = raw[:idx]
	}

	return strings.TrimSpace(raw)
}

// firstObject returns the first balanced {...} block in s. String literals
// are honored so braces inside quoted values do not unbalance the scan.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
