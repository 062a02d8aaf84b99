package resolver

import (
	"regexp"
	"strings"

	"github.com/google/shlex"

	"github.com/sipeed/alfred/pkg/catalog"
	"github.com/sipeed/alfred/pkg/order"
)

var chunkSeparator = regexp.MustCompile(`\s*(?:;|&&)\s*`)

// SplitChunks cuts text on ";" and "&&", dropping empty pieces.
func SplitChunks(text string) []string {
	parts := chunkSeparator.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Tokenize splits on whitespace keeping quoted spans together. Unbalanced
// quotes fall back to a plain whitespace split.
func Tokenize(text string) []string {
	tokens, err := shlex.Split(text)
	if err != nil {
		return strings.Fields(text)
	}
	return tokens
}

// parseGrammar reads "<domain> <trigger> args..." against the catalog.
func parseGrammar(cat *catalog.Catalog, chunk string) (order.Order, bool) {
	tokens := Tokenize(chunk)
	if len(tokens) < 2 {
		return order.Order{}, false
	}
	domainName, _, ok := cat.Domain(tokens[0])
	if !ok {
		return order.Order{}, false
	}
	cmdName, cmd, ok := cat.FindByTrigger(domainName, tokens[1])
	if !ok {
		return order.Order{}, false
	}
	args, ok := MapArgs(cmd.Template(), tokens[2:])
	if !ok {
		return order.Order{}, false
	}
	return order.Order{Domain: domainName, Command: cmdName, Args: args}, true
}

// MapArgs assigns tokens to the placeholders of template, whose first entry
// is the trigger literal. Required placeholders take one token each, then
// optional ones. Leftover tokens are space-joined onto the last optional
// that got a value, or else the last required one. Too few tokens for the
// required placeholders is a miss.
func MapArgs(template []catalog.Token, tokens []string) (map[string]string, bool) {
	args := map[string]string{}
	if len(template) == 0 {
		return args, true
	}
	if template[0].Kind != catalog.TokenLiteral {
		return nil, false
	}

	var required, optional []string
	for _, tok := range template[1:] {
		switch tok.Kind {
		case catalog.TokenRequired:
			required = append(required, tok.Name)
		case catalog.TokenOptional:
			optional = append(optional, tok.Name)
		}
	}
	if len(tokens) < len(required) {
		return nil, false
	}

	idx := 0
	for _, name := range required {
		args[name] = tokens[idx]
		idx++
	}
	lastOptional := ""
	for _, name := range optional {
		if idx >= len(tokens) {
			break
		}
		args[name] = tokens[idx]
		lastOptional = name
		idx++
	}

	if idx < len(tokens) {
		target := lastOptional
		if target == "" && len(required) > 0 {
			target = required[len(required)-1]
		}
		if target == "" {
			return nil, false
		}
		extra := strings.Join(tokens[idx:], " ")
		args[target] = strings.TrimSpace(args[target] + " " + extra)
	}
	return args, true
}
