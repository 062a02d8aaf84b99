package nl

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sipeed/alfred/pkg/order"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	captureRef  = regexp.MustCompile(`\$(\d+)`)
)

// extractJSON strips a markdown code fence some models wrap replies in.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ParseAliasProposal validates a {"pattern","args_map"} reply. The pattern
// must be non-empty, contain some literal text and at most MaxWildcards
// wildcards; args_map must be an object whose $N references point at
// existing wildcards.
func ParseAliasProposal(text string) (*AliasProposal, error) {
	var raw struct {
		Pattern any `json:"pattern"`
		ArgsMap any `json:"args_map"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("alias reply is not JSON: %w", err)
	}

	pattern, ok := raw.Pattern.(string)
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if !ok || pattern == "" {
		return nil, fmt.Errorf("alias pattern missing")
	}
	if strings.Trim(pattern, "* ") == "" {
		return nil, fmt.Errorf("alias pattern has no literal text")
	}
	wildcards := strings.Count(pattern, "*")
	if wildcards > MaxWildcards {
		return nil, fmt.Errorf("alias pattern has %d wildcards, max %d", wildcards, MaxWildcards)
	}

	argsObj, ok := raw.ArgsMap.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("alias args_map must be an object")
	}
	args := make(map[string]string, len(argsObj))
	for k, v := range argsObj {
		s, ok := order.Stringify(v)
		if !ok {
			continue
		}
		for _, m := range captureRef.FindAllStringSubmatch(s, -1) {
			n, _ := strconv.Atoi(m[1])
			if n < 1 || n > wildcards {
				return nil, fmt.Errorf("args_map %q refers to $%d but pattern has %d wildcards", k, n, wildcards)
			}
		}
		args[k] = s
	}
	return &AliasProposal{Pattern: pattern, ArgsMap: args}, nil
}
