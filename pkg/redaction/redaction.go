// Package redaction masks credentials before text reaches a log line or the
// dispatch history. Scripts print whatever they like to stderr and model
// backends echo request details in their errors.
package redaction

import (
	"regexp"
	"strings"
)

const Replacement = "[REDACTED]"

// Redactor replaces the secret part of every match. When a pattern has
// capture groups only the groups are replaced, so "api_key=XYZ" keeps its
// label.
type Redactor struct {
	patterns []*regexp.Regexp
}

var builtinPatterns = []string{
	`(?i)(?:api[_-]?key|apikey|api[_-]?secret)\s*[=:]\s*['"]?([a-zA-Z0-9_\-]{16,})['"]?`,
	`(?i)bearer\s+([a-zA-Z0-9_\-\.]{16,})`,
	`(?i)(?:auth[_-]?token|access[_-]?token|refresh[_-]?token)\s*[=:]\s*['"]?([a-zA-Z0-9_\-\.]{16,})['"]?`,
	`(?i)(?:password|passwd|pwd)\s*[=:]\s*['"]?([^'"\s]{4,})['"]?`,
	`"(?:api_key|apikey|secret|password|token|private_key)"\s*:\s*"([^"]+)"`,
	`sk-[a-zA-Z0-9\-_]{20,}`,
	`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`,
	`AKIA[0-9A-Z]{16}`,
}

var sensitiveKeys = []string{
	"password", "passwd", "api_key", "apikey", "secret", "private_key",
	"access_token", "refresh_token", "auth_token", "credential",
}

// New builds a Redactor from the built-in patterns plus extra ones.
func New(extra ...string) (*Redactor, error) {
	r := &Redactor{}
	for _, p := range append(append([]string{}, builtinPatterns...), extra...) {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r *Redactor) Redact(input string) string {
	result := input
	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, func(match string) string {
			sub := re.FindStringSubmatch(match)
			if len(sub) < 2 {
				return Replacement
			}
			redacted := match
			for i := len(sub) - 1; i >= 1; i-- {
				if sub[i] != "" {
					redacted = strings.Replace(redacted, sub[i], Replacement, 1)
				}
			}
			return redacted
		})
	}
	return result
}

// RedactFields returns a copy of fields with sensitive keys masked and string
// values redacted. Nested maps are walked.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if isSensitiveKey(k) {
			out[k] = Replacement
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = r.Redact(val)
		case map[string]any:
			out[k] = r.RedactFields(val)
		default:
			out[k] = v
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if strings.Contains(key, sk) {
			return true
		}
	}
	return false
}

var global, _ = New()

// Redact applies the built-in patterns.
func Redact(input string) string {
	return global.Redact(input)
}

// RedactFields applies the built-in patterns to a field map.
func RedactFields(fields map[string]any) map[string]any {
	return global.RedactFields(fields)
}
