package research

import (
	"encoding/json"
	"strings"
)

// MalformedResponseError reports upstream content that does not hold a usable
// JSON array.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "research: malformed response: " + e.Reason + ": " + e.Err.Error()
	}
	return "research: malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ExtractJSONArray finds the first balanced [...] span in content that
// decodes as a JSON array of objects. Brackets inside JSON strings are
// ignored, so prose and markdown fences around the array are tolerated. When
// no array holds an object, the first decodable array is returned.
func ExtractJSONArray(content string) ([]any, error) {
	reason := "no JSON array found"
	var (
		lastErr error
		first   []any
	)
	for start := strings.IndexByte(content, '['); start >= 0; start = nextBracket(content, start) {
		end := matchBracket(content, start)
		if end < 0 {
			if lastErr == nil {
				reason = "unbalanced JSON array"
			}
			continue
		}
		var arr []any
		if err := json.Unmarshal([]byte(content[start:end+1]), &arr); err != nil {
			reason, lastErr = "invalid JSON array", err
			continue
		}
		if hasObject(arr) {
			return arr, nil
		}
		if first == nil {
			first = arr
		}
	}
	if first != nil {
		return first, nil
	}
	return nil, &MalformedResponseError{Reason: reason, Err: lastErr}
}

func hasObject(arr []any) bool {
	for _, v := range arr {
		if _, ok := v.(map[string]any); ok {
			return true
		}
	}
	return false
}

func nextBracket(s string, after int) int {
	i := strings.IndexByte(s[after+1:], '[')
	if i < 0 {
		return -1
	}
	return after + 1 + i
}

// matchBracket returns the index of the ']' closing the '[' at start, or -1.
func matchBracket(s string, start int) int {
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if ch != ']' {
					return -1
				}
				return i
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}
