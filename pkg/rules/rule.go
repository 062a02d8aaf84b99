package rules

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sipeed/alfred/pkg/order"
	"github.com/sipeed/alfred/pkg/utils"
)

const (
	MaxWeight     = 5.0
	DefaultWeight = 1.0

	// Learned rules start below DefaultWeight so they need positive feedback
	// before they outrank hand-written ones.
	LearnedWeight = 0.5
	LearnDelta    = 0.1
	LearnCeiling  = 2.0

	// Wildcard matches any span in a pattern; $N in args_map refers to the
	// N-th wildcard capture.
	Wildcard = "*"
)

// Rule maps a wildcard pattern onto the args of one domain.command.
type Rule struct {
	ID      string            `json:"id,omitempty"`
	Pattern string            `json:"pattern"`
	ArgsMap map[string]string `json:"args_map"`
	Weight  float64           `json:"weight"`
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      string         `json:"id"`
		Pattern string         `json:"pattern"`
		ArgsMap map[string]any `json:"args_map"`
		Weight  *float64       `json:"weight"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = raw.ID
	r.Pattern = raw.Pattern
	r.ArgsMap = make(map[string]string, len(raw.ArgsMap))
	for k, v := range raw.ArgsMap {
		if s, ok := order.Stringify(v); ok {
			r.ArgsMap[k] = s
		}
	}
	r.Weight = DefaultWeight
	if raw.Weight != nil {
		r.Weight = clampWeight(*raw.Weight, MaxWeight)
	}
	return nil
}

func (r Rule) clone() Rule {
	out := r
	out.ArgsMap = make(map[string]string, len(r.ArgsMap))
	for k, v := range r.ArgsMap {
		out.ArgsMap[k] = v
	}
	return out
}

// KeyedRule is a rule together with the canonical key it is filed under.
type KeyedRule struct {
	Key string
	Rule
}

func newRuleID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func clampWeight(w, ceiling float64) float64 {
	if math.IsNaN(w) || w < 0 {
		return 0
	}
	if w > ceiling {
		w = ceiling
	}
	// keep the persisted file free of 0.6000000000000001
	return math.Round(w*1e6) / 1e6
}

// compilePattern turns a normalized pattern into an anchored expression where
// every wildcard is a capture group and everything else is literal.
func compilePattern(normalized string) (*regexp.Regexp, error) {
	parts := strings.Split(normalized, Wildcard)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile("^" + strings.Join(parts, "(.*)") + "$")
}

var argRef = regexp.MustCompile(`\$(\d+)`)

// expandArgs substitutes $N references with the trimmed N-th capture in a
// single pass, so captured text is never expanded again. References past the
// last capture are left as written.
func expandArgs(argsMap map[string]string, captures []string) map[string]string {
	out := make(map[string]string, len(argsMap))
	for k, v := range argsMap {
		out[k] = argRef.ReplaceAllStringFunc(v, func(ref string) string {
			n, err := strconv.Atoi(ref[1:])
			if err != nil || n < 1 || n > len(captures) {
				return ref
			}
			return strings.TrimSpace(captures[n-1])
		})
	}
	return out
}

func normalizePattern(p string) string {
	return utils.NormalizeText(p)
}
