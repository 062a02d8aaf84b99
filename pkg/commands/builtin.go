package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sipeed/alfred/pkg/feedback"
	"github.com/sipeed/alfred/pkg/rules"
	"github.com/sipeed/alfred/pkg/session"
)

// RuleLister is the part of the rule store the commands read and prune.
type RuleLister interface {
	List() []rules.KeyedRule
	Delete(id string) (string, error)
}

type Rater interface {
	Positive(sess *session.Session) (feedback.Outcome, error)
	Negative(sess *session.Session) (feedback.Outcome, error)
}

// Deps are the services the built-in commands act on.
type Deps struct {
	Feedback Rater
	Rules    RuleLister
}

func BuiltinDefinitions(deps Deps) []Definition {
	var defs []Definition
	defs = []Definition{
		{
			Name:        "good",
			Aliases:     []string{"bien"},
			Description: "The last answer was right; trust its rule more",
			Usage:       "/good",
			Handler: func(_ context.Context, req Request) error {
				return handleRate(req, deps.Feedback, true)
			},
		},
		{
			Name:        "bad",
			Aliases:     []string{"mal"},
			Description: "The last answer was wrong; trust its rule less",
			Usage:       "/bad",
			Handler: func(_ context.Context, req Request) error {
				return handleRate(req, deps.Feedback, false)
			},
		},
		{
			Name:        "rules",
			Description: "List learned and authored rules",
			Usage:       "/rules [filter]",
			Handler: func(_ context.Context, req Request) error {
				return handleRules(req, deps.Rules)
			},
		},
		{
			Name:        "forget",
			Description: "Delete a rule by id",
			Usage:       "/forget <id>",
			Handler: func(_ context.Context, req Request) error {
				return handleForget(req, deps.Rules)
			},
		},
		{
			Name:        "help",
			Description: "Show this help message",
			Usage:       "/help",
			Handler: func(_ context.Context, req Request) error {
				return reply(req, FormatHelpMessage(defs))
			},
		},
	}
	return defs
}

func handleRate(req Request, rater Rater, positive bool) error {
	if rater == nil {
		return reply(req, "Feedback is not available.")
	}
	rate, arrow, word := rater.Negative, "down", "negatively"
	if positive {
		rate, arrow, word = rater.Positive, "up", "positively"
	}

	out, err := rate(req.Session)
	switch {
	case errors.Is(err, feedback.ErrNoPriorRule):
		return reply(req, fmt.Sprintf("There is no previous rule to rate %s, sir.", word))
	case errors.Is(err, rules.ErrRuleNotFound):
		return reply(req, "I could not find the last rule, sir.")
	case err != nil:
		return err
	}
	return reply(req, fmt.Sprintf("Noted, sir. Weight %s for %s. New weight: %.2f", arrow, out.Key, out.Weight))
}

func handleRules(req Request, store RuleLister) error {
	if store == nil {
		return reply(req, "No rule store loaded.")
	}
	filter := strings.ToLower(commandArgs(req.Text))
	list := store.List()
	sort.SliceStable(list, func(i, j int) bool { return list[i].Key < list[j].Key })

	lines := make([]string, 0, len(list))
	for _, r := range list {
		if filter != "" && !strings.Contains(r.Key, filter) && !strings.Contains(r.Pattern, filter) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  %-20s %.2f  %q", r.ID, r.Key, r.Weight, r.Pattern))
	}
	if len(lines) == 0 {
		return reply(req, "No rules.")
	}
	return reply(req, strings.Join(lines, "\n"))
}

func handleForget(req Request, store RuleLister) error {
	id := commandArgs(req.Text)
	if id == "" {
		return reply(req, "Usage: /forget <id>")
	}
	if store == nil {
		return reply(req, "No rule store loaded.")
	}
	key, err := store.Delete(id)
	if errors.Is(err, rules.ErrRuleNotFound) {
		return reply(req, fmt.Sprintf("No rule with id %s.", id))
	}
	if err != nil {
		return err
	}
	if req.Session.LastRuleID() == id {
		req.Session.ClearLastRuleID()
	}
	return reply(req, fmt.Sprintf("Forgot rule %s from %s.", id, key))
}

func FormatHelpMessage(defs []Definition) string {
	if len(defs) == 0 {
		return "No commands available."
	}

	lines := make([]string, 0, len(defs))
	for _, def := range defs {
		usage := def.Usage
		if usage == "" {
			usage = "/" + def.Name
		}
		if len(def.Aliases) > 0 {
			usage += " (/" + strings.Join(def.Aliases, ", /") + ")"
		}
		desc := def.Description
		if desc == "" {
			desc = "No description"
		}
		lines = append(lines, fmt.Sprintf("%s - %s", usage, desc))
	}
	return strings.Join(lines, "\n")
}

func commandArgs(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func reply(req Request, text string) error {
	if req.Reply == nil {
		return nil
	}
	return req.Reply(text)
}
