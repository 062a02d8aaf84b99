// Package feedback lets the user rate the rule behind the last resolution.
package feedback

import (
	"errors"

	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/rules"
	"github.com/sipeed/alfred/pkg/session"
)

const (
	DefaultPositiveDelta = 0.2
	DefaultNegativeDelta = 0.3
)

var ErrNoPriorRule = errors.New("no previous rule to rate")

// RuleAdjuster is the part of the rule store feedback needs.
type RuleAdjuster interface {
	Adjust(id string, delta float64, mode rules.AdjustMode) (rules.AdjustResult, error)
}

// Outcome reports the rule that was adjusted and its new weight.
type Outcome struct {
	RuleID string
	Key    string
	Weight float64
}

type Adjuster struct {
	Store         RuleAdjuster
	PositiveDelta float64
	NegativeDelta float64
}

func NewAdjuster(store RuleAdjuster) *Adjuster {
	return &Adjuster{
		Store:         store,
		PositiveDelta: DefaultPositiveDelta,
		NegativeDelta: DefaultNegativeDelta,
	}
}

// Positive raises the weight of the session's last rule.
func (a *Adjuster) Positive(sess *session.Session) (Outcome, error) {
	return a.adjust(sess, a.PositiveDelta, rules.AdjustIncrease)
}

// Negative lowers the weight of the session's last rule.
func (a *Adjuster) Negative(sess *session.Session) (Outcome, error) {
	return a.adjust(sess, a.NegativeDelta, rules.AdjustDecrease)
}

func (a *Adjuster) adjust(sess *session.Session, delta float64, mode rules.AdjustMode) (Outcome, error) {
	id := sess.LastRuleID()
	if id == "" {
		return Outcome{}, ErrNoPriorRule
	}
	res, err := a.Store.Adjust(id, delta, mode)
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			sess.ClearLastRuleID()
		}
		return Outcome{RuleID: id}, err
	}
	logger.InfoCF("feedback", "Rule rated", map[string]any{
		"rule":   id,
		"key":    res.Key,
		"mode":   mode.String(),
		"weight": res.Weight,
	})
	return Outcome{RuleID: id, Key: res.Key, Weight: res.Weight}, nil
}
