// Package idcodec parses the "/collection/123" link form accepted anywhere
// an id is expected, and composes the same form for outbound links.
//
// Grounded on original_source/pijuv2/backend/deserialize.py:extract_id —
// the Go port keeps its exact behavior: split on the last '/' if present,
// then require the remainder to be all digits.
package idcodec

import (
	"strconv"
	"strings"
)

// ExtractID accepts a bare integer, a decimal string, or a URI path ending
// in "/<digits>", and returns the integer id. The second return value is
// false when value could not be parsed as an id.
func ExtractID(value any) (int64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		// JSON numbers decode to float64; only accept exact integers.
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case string:
		return extractIDFromString(v)
	default:
		return 0, false
	}
}

func extractIDFromString(s string) (int64, bool) {
	tail := s
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		tail = s[idx+1:]
	}
	if tail == "" || !isAllDigits(tail) {
		return 0, false
	}
	n, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExtractIDs maps ExtractID over a slice of raw values, dropping entries
// that don't parse.
func ExtractIDs(values []any) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if id, ok := ExtractID(v); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// FormatLink composes the canonical "/collection/id" outbound link form.
func FormatLink(collection string, id int64) string {
	return "/" + collection + "/" + strconv.FormatInt(id, 10)
}
