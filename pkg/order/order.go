// Package order defines the structured instruction produced by resolution and
// consumed by dispatch, plus the JSON forms it is exchanged in.
package order

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Order is one resolved instruction: run Command of Domain with Args.
type Order struct {
	Domain  string            `json:"domain"`
	Command string            `json:"command"`
	Args    map[string]string `json:"args"`
}

// Key returns the canonical "domain.command" key.
func (o Order) Key() string {
	return CanonicalKey(o.Domain, o.Command)
}

func CanonicalKey(domain, command string) string {
	return domain + "." + command
}

// SplitKey reverses CanonicalKey. The command is everything after the first dot.
func SplitKey(key string) (domain, command string, ok bool) {
	domain, command, ok = strings.Cut(key, ".")
	if !ok || domain == "" || command == "" {
		return "", "", false
	}
	return domain, command, true
}

type rawOrder struct {
	Domain  any `json:"domain"`
	Command any `json:"command"`
	Args    any `json:"args"`
}

type rawBatch struct {
	Orders []json.RawMessage `json:"orders"`
}

// Parse reads text as a single order object, an {"orders":[...]} container or
// a bare JSON array of orders. Every item must carry a non-empty string domain
// and command and, when present, an object args. If any item fails that check
// the whole input is rejected.
func Parse(text string) ([]Order, error) {
	data := []byte(strings.TrimSpace(text))
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return parseItems(items)
	case '{':
	default:
		return nil, fmt.Errorf("payload is not a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["orders"]; ok {
		var batch rawBatch
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("orders must be a list: %w", err)
		}
		return parseItems(batch.Orders)
	}

	o, err := parseItem(data)
	if err != nil {
		return nil, err
	}
	return []Order{o}, nil
}

func parseItems(items []json.RawMessage) ([]Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no orders in payload")
	}
	out := make([]Order, 0, len(items))
	for i, item := range items {
		o, err := parseItem(item)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseItem(data []byte) (Order, error) {
	var raw rawOrder
	if err := json.Unmarshal(data, &raw); err != nil {
		return Order{}, err
	}
	domain, _ := raw.Domain.(string)
	command, _ := raw.Command.(string)
	if strings.TrimSpace(domain) == "" {
		return Order{}, fmt.Errorf("missing domain")
	}
	if strings.TrimSpace(command) == "" {
		return Order{}, fmt.Errorf("missing command")
	}

	o := Order{Domain: domain, Command: command, Args: map[string]string{}}
	switch args := raw.Args.(type) {
	case nil:
	case map[string]any:
		for k, v := range args {
			if s, ok := Stringify(v); ok {
				o.Args[k] = s
			}
		}
	default:
		return Order{}, fmt.Errorf("args must be an object")
	}
	return o, nil
}

// Stringify renders a decoded JSON scalar as an argument string. Nulls are
// dropped (ok=false); nested values are re-encoded as JSON.
func Stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val), true
		}
		return string(b), true
	}
}

// Marshal renders orders the way the original payload is exchanged: a single
// object for one order, {"orders":[...]} otherwise.
func Marshal(orders []Order) ([]byte, error) {
	if len(orders) == 1 {
		return json.Marshal(orders[0])
	}
	return json.Marshal(struct {
		Orders []Order `json:"orders"`
	}{Orders: orders})
}
