package dispatch

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeOutput turns raw process output into text without ever failing:
// UTF-8 (BOM stripped) first, then UTF-16 when a BOM announces it, and
// finally UTF-8 with invalid sequences replaced by U+FFFD.
func DecodeOutput(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(bytes.TrimPrefix(b, utf8BOM))
	}
	if len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return string(out)
		}
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// RecoverResult extracts the structured object a script printed, tolerating
// noise around it. It tries, in order: the whole trimmed stdout (empty means
// an empty object), the last line that is itself a {...} object, and the
// span from the last "{" to the last "}". When all fail the raw streams are
// embedded in a failure result.
func RecoverResult(stdout, stderr string) Result {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return Result{}
	}
	if r, ok := parseObject(trimmed); ok {
		return r
	}

	lines := strings.Split(trimmed, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}
		if r, ok := parseObject(line); ok {
			return r
		}
	}

	start := strings.LastIndex(stdout, "{")
	end := strings.LastIndex(stdout, "}")
	if start != -1 && end > start {
		if r, ok := parseObject(strings.TrimSpace(stdout[start : end+1])); ok {
			return r
		}
	}

	return Result{
		"ok":     false,
		"error":  "stdout is not JSON",
		"stdout": stdout,
		"stderr": stderr,
	}
}

func parseObject(s string) (Result, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return Result(m), true
}
