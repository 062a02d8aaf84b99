package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sipeed/alfred/pkg/dispatch"
	"github.com/sipeed/alfred/pkg/order"
	"github.com/sipeed/alfred/pkg/resolver"
	"github.com/sipeed/alfred/pkg/utils"
)

// FormatSummary renders one line per dispatched order.
func FormatSummary(orders []order.Order, summary dispatch.Summary) string {
	lines := make([]string, 0, len(summary.Results))
	for i, res := range summary.Results {
		name := "?"
		if i < len(orders) {
			name = orders[i].Key()
		}
		if res.OK() {
			lines = append(lines, "✓ "+name)
			continue
		}
		msg := res.ErrorMessage()
		if msg == "" {
			msg = "failed"
		}
		lines = append(lines, fmt.Sprintf("✗ %s: %s", name, utils.Truncate(msg, 160)))
	}
	return strings.Join(lines, "\n")
}

// UserMessage turns a ProcessDirect error into something fit to print.
func UserMessage(err error) string {
	var noOrders *resolver.NoOrdersError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, resolver.ErrEmptyInput):
		return "I did not catch that, sir."
	case errors.As(err, &noOrders):
		return "I am afraid I did not understand that, sir."
	default:
		return "Something went wrong: " + err.Error()
	}
}
