package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Truncate returns a truncated version of s with at most maxLen runes.
// If the string is truncated, "..." is appended to indicate truncation.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// StripAccents decomposes s (NFKD) and drops combining marks, so "canción"
// becomes "cancion".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeText is the comparison form used for rule patterns and user
// input: accents stripped, lower-cased, whitespace collapsed and trimmed.
func NormalizeText(s string) string {
	s = strings.ToLower(StripAccents(s))
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// ContainsWord reports whether phrase occurs in text as a whole word (or
// whole multi-word phrase), comparing normalized forms. "exito" does not
// contain "exit".
func ContainsWord(text, phrase string) bool {
	p := NormalizeText(phrase)
	if p == "" {
		return false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(p) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(NormalizeText(text))
}
