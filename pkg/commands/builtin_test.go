package commands

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/alfred/pkg/feedback"
	"github.com/sipeed/alfred/pkg/rules"
	"github.com/sipeed/alfred/pkg/session"
)

type fakeRules struct {
	list    []rules.KeyedRule
	deleted []string
}

func (f *fakeRules) List() []rules.KeyedRule { return f.list }

func (f *fakeRules) Delete(id string) (string, error) {
	for _, r := range f.list {
		if r.ID == id {
			f.deleted = append(f.deleted, id)
			return r.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %s", rules.ErrRuleNotFound, id)
}

type fakeRater struct {
	err error
}

func (f fakeRater) Positive(*session.Session) (feedback.Outcome, error) {
	return feedback.Outcome{RuleID: "r1", Key: "music.play", Weight: 1.2}, f.err
}

func (f fakeRater) Negative(*session.Session) (feedback.Outcome, error) {
	return feedback.Outcome{RuleID: "r1", Key: "music.play", Weight: 0.7}, f.err
}

func run(t *testing.T, deps Deps, sess *session.Session, text string) (Result, string) {
	t.Helper()
	var out strings.Builder
	d := NewDispatcher(NewRegistry(BuiltinDefinitions(deps)))
	res := d.Dispatch(context.Background(), Request{
		Session: sess,
		Text:    text,
		Reply: func(s string) error {
			out.WriteString(s)
			return nil
		},
	})
	return res, out.String()
}

func TestBuiltinDefinitions_Names(t *testing.T) {
	names := map[string]bool{}
	for _, d := range BuiltinDefinitions(Deps{}) {
		names[d.Name] = true
	}
	for _, want := range []string{"good", "bad", "rules", "forget", "help"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestGoodAndBad(t *testing.T) {
	deps := Deps{Feedback: fakeRater{}}

	res, out := run(t, deps, session.New("t"), "/good")
	require.True(t, res.Handled)
	assert.Contains(t, out, "up for music.play")
	assert.Contains(t, out, "1.20")

	_, out = run(t, deps, session.New("t"), "/mal")
	assert.Contains(t, out, "down for music.play")
}

func TestGood_NoPriorRule(t *testing.T) {
	_, out := run(t, Deps{Feedback: fakeRater{err: feedback.ErrNoPriorRule}}, session.New("t"), "/good")
	assert.Contains(t, out, "no previous rule")
}

func TestRulesAndForget(t *testing.T) {
	store := &fakeRules{list: []rules.KeyedRule{
		{Key: "music.play", Rule: rules.Rule{ID: "r1", Pattern: "pon *", Weight: 1}},
		{Key: "chrome.open", Rule: rules.Rule{ID: "r2", Pattern: "abre *", Weight: 0.5}},
	}}
	sess := session.New("t")
	sess.SetLastRuleID("r1")

	_, out := run(t, Deps{Rules: store}, sess, "/rules music")
	assert.Contains(t, out, "r1")
	assert.NotContains(t, out, "r2")

	_, out = run(t, Deps{Rules: store}, sess, "/forget r1")
	assert.Contains(t, out, "Forgot rule r1 from music.play")
	assert.Equal(t, []string{"r1"}, store.deleted)
	assert.Empty(t, sess.LastRuleID())

	_, out = run(t, Deps{Rules: store}, sess, "/forget nope")
	assert.Contains(t, out, "No rule with id nope")

	_, out = run(t, Deps{Rules: store}, sess, "/forget")
	assert.Contains(t, out, "Usage")
}

func TestHelpListsEveryCommand(t *testing.T) {
	_, out := run(t, Deps{}, session.New("t"), "/help")
	for _, want := range []string{"/good (/bien)", "/bad (/mal)", "/rules", "/forget <id>", "/help"} {
		assert.Contains(t, out, want)
	}
}
