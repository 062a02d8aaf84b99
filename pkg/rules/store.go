// Package rules is the persisted, weighted collection of pattern rules that
// map free text onto orders. The store is write-through: every mutation is
// flushed to disk before the call returns.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"sync"

	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/order"
	"github.com/sipeed/alfred/pkg/utils"
)

var (
	ErrRuleNotFound = errors.New("rule not found")
	ErrCorrupt      = errors.New("rule store is corrupt")
	ErrUnreadable   = errors.New("rule store is unreadable")
)

type AdjustMode int

const (
	AdjustIncrease AdjustMode = iota
	AdjustDecrease
)

func (m AdjustMode) String() string {
	if m == AdjustDecrease {
		return "decrease"
	}
	return "increase"
}

// Match is the winning rule for a piece of text and the order it produced.
type Match struct {
	Order  order.Order
	RuleID string
	Key    string
	Weight float64
}

// AdjustResult reports where an adjusted rule lives and its new weight.
type AdjustResult struct {
	Key    string
	Weight float64
}

// Store manages the rule file. It is safe for concurrent use.
type Store struct {
	path  string
	mu    sync.RWMutex
	rules map[string][]Rule

	patterns sync.Map // normalized pattern -> *regexp.Regexp

	// persist is swapped in tests to count writes.
	persist func(path string, data []byte) error
}

// NewStore creates a store backed by path. Call Load before use.
func NewStore(path string) *Store {
	return &Store{
		path:  path,
		rules: make(map[string][]Rule),
		persist: func(path string, data []byte) error {
			return utils.WriteFileAtomic(path, data, 0o644, 0o755)
		},
	}
}

func (s *Store) Path() string { return s.path }

// Load replaces the in-memory rules with the content of the file. A missing
// file yields an empty store and no error. An unreadable or corrupt file also
// yields an empty store; the returned error wraps ErrUnreadable or ErrCorrupt
// so callers can warn and carry on. Use IsSoftLoadError to test for both.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = make(map[string][]Rule)

	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var loaded map[string][]Rule
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for key, list := range loaded {
		if len(list) > 0 {
			s.rules[key] = list
		}
	}

	logger.DebugCF("rules", "Rule store loaded", map[string]any{
		"path":  s.path,
		"keys":  len(s.rules),
		"rules": s.countLocked(),
	})
	return nil
}

// IsSoftLoadError reports whether err from Load left a usable empty store.
func IsSoftLoadError(err error) bool {
	return errors.Is(err, ErrCorrupt) || errors.Is(err, ErrUnreadable)
}

// EnsureIDs gives every rule without an id a fresh one and persists only if
// something was assigned.
func (s *Store) EnsureIDs() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()
	changed := false
	for key, list := range s.rules {
		for i := range list {
			if list[i].ID == "" {
				list[i].ID = newRuleID()
				changed = true
			}
		}
		s.rules[key] = list
	}
	if !changed {
		return false, nil
	}
	if err := s.commitLocked(prev); err != nil {
		return false, err
	}
	return true, nil
}

// Match returns the highest-weighted rule whose pattern fully matches text.
// Equal weights resolve to the rule found first, walking canonical keys in
// sorted order and rules in file order.
func (s *Store) Match(text string) (*Match, bool) {
	normalized := utils.NormalizeText(text)
	if normalized == "" {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best     *Match
		bestSeq  int
		seq      int
		haveBest bool
	)
	for _, key := range s.sortedKeysLocked() {
		domain, command, ok := order.SplitKey(key)
		if !ok {
			continue
		}
		for _, r := range s.rules[key] {
			seq++
			re := s.compiled(normalizePattern(r.Pattern))
			if re == nil {
				continue
			}
			groups := re.FindStringSubmatch(normalized)
			if groups == nil {
				continue
			}
			if haveBest && !outranks(r.Weight, seq, best.Weight, bestSeq) {
				continue
			}
			best = &Match{
				Order: order.Order{
					Domain:  domain,
					Command: command,
					Args:    expandArgs(r.ArgsMap, groups[1:]),
				},
				RuleID: r.ID,
				Key:    key,
				Weight: r.Weight,
			}
			bestSeq = seq
			haveBest = true
		}
	}
	return best, haveBest
}

func outranks(weight float64, seq int, bestWeight float64, bestSeq int) bool {
	if weight != bestWeight {
		return weight > bestWeight
	}
	return seq < bestSeq
}

func (s *Store) compiled(normalized string) *regexp.Regexp {
	if v, ok := s.patterns.Load(normalized); ok {
		return v.(*regexp.Regexp)
	}
	re, err := compilePattern(normalized)
	if err != nil {
		logger.WarnCF("rules", "Skipping rule with bad pattern", map[string]any{
			"pattern": normalized,
			"error":   err.Error(),
		})
		return nil
	}
	s.patterns.Store(normalized, re)
	return re
}

// Learn records that pattern resolves to domain.command with argsMap. A rule
// with the same normalized pattern under that key gains LearnDelta, capped at
// LearnCeiling; otherwise a new rule is appended at LearnedWeight.
func (s *Store) Learn(pattern, domain, command string, argsMap map[string]string) (Rule, error) {
	normalized := normalizePattern(pattern)
	if normalized == "" {
		return Rule{}, fmt.Errorf("empty pattern")
	}
	if domain == "" || command == "" {
		return Rule{}, fmt.Errorf("learn needs domain and command")
	}
	key := order.CanonicalKey(domain, command)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()
	list := s.rules[key]
	for i := range list {
		if normalizePattern(list[i].Pattern) != normalized {
			continue
		}
		if list[i].Weight < LearnCeiling {
			list[i].Weight = clampWeight(list[i].Weight+LearnDelta, LearnCeiling)
		}
		if list[i].ID == "" {
			list[i].ID = newRuleID()
		}
		learned := list[i].clone()
		if err := s.commitLocked(prev); err != nil {
			return Rule{}, err
		}
		logger.InfoCF("rules", "Reinforced learned rule", map[string]any{
			"key":    key,
			"id":     learned.ID,
			"weight": learned.Weight,
		})
		return learned, nil
	}

	r := Rule{
		ID:      newRuleID(),
		Pattern: normalized,
		ArgsMap: make(map[string]string, len(argsMap)),
		Weight:  LearnedWeight,
	}
	for k, v := range argsMap {
		r.ArgsMap[k] = v
	}
	s.rules[key] = append(list, r)
	if err := s.commitLocked(prev); err != nil {
		return Rule{}, err
	}
	logger.InfoCF("rules", "Learned new rule", map[string]any{
		"key":     key,
		"id":      r.ID,
		"pattern": r.Pattern,
	})
	return r.clone(), nil
}

// Adjust moves the weight of rule id by |delta| in the given direction,
// clamped to [0, MaxWeight].
func (s *Store) Adjust(id string, delta float64, mode AdjustMode) (AdjustResult, error) {
	delta = math.Abs(delta)

	s.mu.Lock()
	defer s.mu.Unlock()

	key, idx, ok := s.findLocked(id)
	if !ok {
		return AdjustResult{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	prev := s.snapshotLocked()
	r := &s.rules[key][idx]
	if mode == AdjustDecrease {
		r.Weight = clampWeight(r.Weight-delta, MaxWeight)
	} else {
		r.Weight = clampWeight(r.Weight+delta, MaxWeight)
	}
	res := AdjustResult{Key: key, Weight: r.Weight}
	if err := s.commitLocked(prev); err != nil {
		return AdjustResult{}, err
	}
	logger.InfoCF("rules", "Adjusted rule weight", map[string]any{
		"key":    key,
		"id":     id,
		"mode":   mode.String(),
		"weight": res.Weight,
	})
	return res, nil
}

// Delete removes rule id and returns the canonical key that held it.
func (s *Store) Delete(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, idx, ok := s.findLocked(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	prev := s.snapshotLocked()
	list := s.rules[key]
	list = append(list[:idx:idx], list[idx+1:]...)
	if len(list) == 0 {
		delete(s.rules, key)
	} else {
		s.rules[key] = list
	}
	if err := s.commitLocked(prev); err != nil {
		return key, err
	}
	logger.InfoCF("rules", "Deleted rule", map[string]any{"key": key, "id": id})
	return key, nil
}

// Update edits a rule in place. A nil pattern keeps the current one; a nil
// argsMap keeps the current mapping.
func (s *Store) Update(id string, pattern *string, argsMap map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, idx, ok := s.findLocked(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	var normalized string
	if pattern != nil {
		normalized = normalizePattern(*pattern)
		if normalized == "" {
			return key, fmt.Errorf("empty pattern")
		}
	}
	prev := s.snapshotLocked()
	r := &s.rules[key][idx]
	if pattern != nil {
		r.Pattern = normalized
	}
	if argsMap != nil {
		r.ArgsMap = make(map[string]string, len(argsMap))
		for k, v := range argsMap {
			r.ArgsMap[k] = v
		}
	}
	return key, s.commitLocked(prev)
}

// List returns every rule ordered by key, then file order.
func (s *Store) List() []KeyedRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]KeyedRule, 0, s.countLocked())
	for _, key := range s.sortedKeysLocked() {
		for _, r := range s.rules[key] {
			out = append(out, KeyedRule{Key: key, Rule: r.clone()})
		}
	}
	return out
}

func (s *Store) Get(id string) (KeyedRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, idx, ok := s.findLocked(id)
	if !ok {
		return KeyedRule{}, false
	}
	return KeyedRule{Key: key, Rule: s.rules[key][idx].clone()}, true
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

func (s *Store) countLocked() int {
	n := 0
	for _, list := range s.rules {
		n += len(list)
	}
	return n
}

func (s *Store) sortedKeysLocked() []string {
	keys := make([]string, 0, len(s.rules))
	for k := range s.rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) findLocked(id string) (string, int, bool) {
	if id == "" {
		return "", 0, false
	}
	for key, list := range s.rules {
		for i := range list {
			if list[i].ID == id {
				return key, i, true
			}
		}
	}
	return "", 0, false
}

// snapshotLocked deep-copies the rule map so a failed write can be undone.
func (s *Store) snapshotLocked() map[string][]Rule {
	out := make(map[string][]Rule, len(s.rules))
	for key, list := range s.rules {
		cp := make([]Rule, len(list))
		for i, r := range list {
			cp[i] = r.clone()
		}
		out[key] = cp
	}
	return out
}

// commitLocked persists the current rules, restoring prev if the write fails.
func (s *Store) commitLocked(prev map[string][]Rule) error {
	if err := s.saveLocked(); err != nil {
		s.rules = prev
		return err
	}
	return nil
}

// saveLocked must be called with mu held.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.rules, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rule store: %w", err)
	}
	data = append(data, '\n')
	if err := s.persist(s.path, data); err != nil {
		return fmt.Errorf("write rule store: %w", err)
	}
	return nil
}
