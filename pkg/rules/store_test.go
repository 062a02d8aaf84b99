package rules

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, content string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aliases.json")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	s := NewStore(path)
	require.NoError(t, s.Load())
	return s
}

func countWrites(s *Store) *int {
	n := 0
	orig := s.persist
	s.persist = func(path string, data []byte) error {
		n++
		return orig(path, data)
	}
	return &n
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t, "")
	assert.Equal(t, 0, s.Count())
	_, ok := s.Match("anything")
	assert.False(t, ok)
}

func TestLoad_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path)
	err := s.Load()
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, 0, s.Count())
}

func TestLoad_UnreadablePathIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	require.NoError(t, os.MkdirAll(path, 0o755))

	s := NewStore(path)
	err := s.Load()
	require.ErrorIs(t, err, ErrUnreadable)
	assert.True(t, IsSoftLoadError(err))
	assert.Equal(t, 0, s.Count())
}

func TestLoad_MissingWeightDefaults(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"pon *","args_map":{"song":"$1"}}]}`)
	r, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, DefaultWeight, r.Weight)
	assert.Equal(t, "music.play", r.Key)
}

func TestMatch_CapturesAndNormalization(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"Pon la canción *","args_map":{"song":"$1","device":"salon"},"weight":1}]}`)

	m, ok := s.Match("  pon   la CANCION   Bohemian Rhapsody ")
	require.True(t, ok)
	assert.Equal(t, "a", m.RuleID)
	assert.Equal(t, "music", m.Order.Domain)
	assert.Equal(t, "play", m.Order.Command)
	assert.Equal(t, map[string]string{"song": "bohemian rhapsody", "device": "salon"}, m.Order.Args)
}

func TestMatch_PatternIsLiteralOutsideWildcards(t *testing.T) {
	s := newTestStore(t, `{"web.open":[{"id":"a","pattern":"abre *.com","args_map":{"url":"$1.com"}}]}`)

	m, ok := s.Match("abre example.com")
	require.True(t, ok)
	assert.Equal(t, "example.com", m.Order.Args["url"])

	_, ok = s.Match("abre examplexcom")
	assert.False(t, ok)
}

func TestExpandArgs(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		captures []string
		want     string
	}{
		{"two digit index", "$10-$1", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}, "j-a"},
		{"captured text is not expanded again", "$2 $1", []string{"a", "$1"}, "$1 a"},
		{"reference past captures kept", "$1 $3", []string{" x "}, "x $3"},
		{"no references", "salon", []string{"a"}, "salon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandArgs(map[string]string{"v": tt.value}, tt.captures)
			assert.Equal(t, tt.want, got["v"])
		})
	}
}

func TestMatch_HighestWeightWins(t *testing.T) {
	s := newTestStore(t, `{
  "a.low":  [{"id":"low","pattern":"hola *","args_map":{},"weight":1.0}],
  "b.high": [{"id":"high","pattern":"hola *","args_map":{},"weight":2.0}]
}`)
	m, ok := s.Match("hola mundo")
	require.True(t, ok)
	assert.Equal(t, "high", m.RuleID)
	assert.Equal(t, "b.high", m.Key)
}

func TestMatch_TieGoesToFirstKey(t *testing.T) {
	s := newTestStore(t, `{
  "z.last":  [{"id":"z","pattern":"hola","args_map":{},"weight":1.0}],
  "a.first": [{"id":"a1","pattern":"hola","args_map":{},"weight":1.0},
              {"id":"a2","pattern":"hola","args_map":{},"weight":1.0}]
}`)
	m, ok := s.Match("hola")
	require.True(t, ok)
	assert.Equal(t, "a1", m.RuleID)
}

func TestEnsureIDs_Idempotent(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"pattern":"pon *","args_map":{"song":"$1"}},{"pattern":"toca *","args_map":{"song":"$1"}}]}`)
	writes := countWrites(s)

	changed, err := s.EnsureIDs()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, *writes)

	list := s.List()
	require.Len(t, list, 2)
	assert.NotEmpty(t, list[0].ID)
	assert.NotEqual(t, list[0].ID, list[1].ID)

	changed, err = s.EnsureIDs()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, *writes)
}

func TestLearn_NewRuleThenReinforce(t *testing.T) {
	s := newTestStore(t, "")

	first, err := s.Learn("Pon *", "music", "play", map[string]string{"song": "$1"})
	require.NoError(t, err)
	assert.Equal(t, LearnedWeight, first.Weight)
	assert.Equal(t, "pon *", first.Pattern)
	assert.Less(t, first.Weight, DefaultWeight)

	second, err := s.Learn("  PON   * ", "music", "play", map[string]string{"song": "$1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Greater(t, second.Weight, first.Weight)
	assert.InDelta(t, 0.6, second.Weight, 1e-9)
	assert.Equal(t, 1, s.Count())
}

func TestLearn_CappedAtCeiling(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"pon *","args_map":{},"weight":1.95},{"id":"b","pattern":"toca *","args_map":{},"weight":3.0}]}`)

	r, err := s.Learn("pon *", "music", "play", nil)
	require.NoError(t, err)
	assert.Equal(t, LearnCeiling, r.Weight)

	// above the ceiling stays untouched
	r, err = s.Learn("toca *", "music", "play", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, r.Weight)
}

func TestLearn_PersistsAcrossReload(t *testing.T) {
	s := newTestStore(t, "")
	r, err := s.Learn("abre *", "web", "open", map[string]string{"url": "$1"})
	require.NoError(t, err)

	reloaded := NewStore(s.Path())
	require.NoError(t, reloaded.Load())
	got, ok := reloaded.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, "web.open", got.Key)
	assert.Equal(t, map[string]string{"url": "$1"}, got.ArgsMap)
}

func TestAdjust_Clamped(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"pon *","args_map":{},"weight":4.9}]}`)

	res, err := s.Adjust("a", 0.5, AdjustIncrease)
	require.NoError(t, err)
	assert.Equal(t, MaxWeight, res.Weight)
	assert.Equal(t, "music.play", res.Key)

	res, err = s.Adjust("a", 10, AdjustDecrease)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Weight)

	_, err = s.Adjust("missing", 1, AdjustIncrease)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"pon *","args_map":{}},{"id":"b","pattern":"toca *","args_map":{}}]}`)

	key, err := s.Delete("a")
	require.NoError(t, err)
	assert.Equal(t, "music.play", key)
	_, ok := s.Get("a")
	assert.False(t, ok)
	_, ok = s.Get("b")
	assert.True(t, ok)

	_, err = s.Delete("a")
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"pon *","args_map":{"song":"$1"}}]}`)

	pattern := "Reproduce *"
	_, err := s.Update("a", &pattern, nil)
	require.NoError(t, err)

	m, ok := s.Match("reproduce yesterday")
	require.True(t, ok)
	assert.Equal(t, "yesterday", m.Order.Args["song"])

	_, err = s.Update("nope", nil, map[string]string{})
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestMutations_RollBackWhenWriteFails(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"pon *","args_map":{"song":"$1"},"weight":1}]}`)
	s.persist = func(string, []byte) error { return errors.New("disk full") }

	r, err := s.Learn("toca *", "music", "play", map[string]string{"song": "$1"})
	require.Error(t, err)
	assert.Empty(t, r.ID)
	_, ok := s.Match("toca yesterday")
	assert.False(t, ok)

	_, err = s.Learn("pon *", "music", "play", nil)
	require.Error(t, err)
	_, err = s.Adjust("a", 1, AdjustIncrease)
	require.Error(t, err)
	pattern := "ponme *"
	_, err = s.Update("a", &pattern, map[string]string{"song": "x"})
	require.Error(t, err)
	_, err = s.Delete("a")
	require.Error(t, err)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, got.Weight)
	assert.Equal(t, "pon *", got.Pattern)
	assert.Equal(t, map[string]string{"song": "$1"}, got.ArgsMap)
	assert.Equal(t, 1, s.Count())

	reloaded := NewStore(s.Path())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, s.List(), reloaded.List())
}

func TestAdjust_ConcurrentUpdatesAreNotLost(t *testing.T) {
	s := newTestStore(t, `{"music.play":[{"id":"a","pattern":"pon *","args_map":{"song":"$1"},"weight":0.5}]}`)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Adjust("a", 0.1, AdjustIncrease)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			m, ok := s.Match("pon algo")
			if assert.True(t, ok) {
				assert.Equal(t, "a", m.RuleID)
			}
		}()
	}
	wg.Wait()

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.InDelta(t, 2.5, got.Weight, 1e-9)

	for i := 0; i < 40; i++ {
		_, err := s.Adjust("a", 0.1, AdjustIncrease)
		require.NoError(t, err)
	}
	got, _ = s.Get("a")
	assert.Equal(t, MaxWeight, got.Weight)

	reloaded := NewStore(s.Path())
	require.NoError(t, reloaded.Load())
	fromDisk, ok := reloaded.Get("a")
	require.True(t, ok)
	assert.Equal(t, got.Weight, fromDisk.Weight)
}
