// Package respond sanitizes raw model output before it is parsed.
package respond

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"briefgen/internal/core"
)

var flatObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// CleanJSON strips surrounding whitespace and a markdown code fence, if any.
func CleanJSON(response string) string {
	clean := strings.TrimSpace(response)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```JSON")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
		clean = strings.TrimSpace(clean)
	}
	return clean
}

// DecodeObject parses a model response as a JSON object. When the cleaned
// response is not valid JSON, the first balanced {...} block is tried before
// giving up with core.ErrMalformedJSON.
func DecodeObject(response string) (map[string]any, error) {
	clean := CleanJSON(response)

	var obj map[string]any
	if err := json.Unmarshal([]byte(clean), &obj); err == nil && obj != nil {
		return obj, nil
	}

	if block, ok := FirstObject(clean); ok {
		if err := json.Unmarshal([]byte(block), &obj); err == nil && obj != nil {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", core.ErrMalformedJSON, preview(response, 200))
}

// FirstObject returns the first brace-balanced object in s. Braces inside
// JSON strings are ignored.
func FirstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
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

// FirstFlatObject returns the first {...} block that contains no nested braces.
func FirstFlatObject(s string) (string, bool) {
	m := flatObjectPattern.FindString(s)
	return m, m != ""
}

// ExtractStringField pulls "key": "value" out of text that is not valid JSON.
func ExtractStringField(s, key string) (string, bool) {
	re, err := regexp.Compile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*"([^"]+)"`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
