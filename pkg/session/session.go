// Package session tracks per-caller conversational state. The only state the
// pipeline needs is the id of the rule that produced the last resolution, so
// feedback can be attributed to it.
package session

import (
	"sync"
	"time"
)

type Session struct {
	Key     string    `json:"key"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	mu         sync.Mutex
	lastRuleID string
}

func New(key string) *Session {
	now := time.Now()
	return &Session{Key: key, Created: now, Updated: now}
}

// LastRuleID returns the rule id recorded by the last resolution, if any.
func (s *Session) LastRuleID() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRuleID
}

func (s *Session) SetLastRuleID(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRuleID = id
	s.Updated = time.Now()
}

// ClearLastRuleID forgets the last rule, e.g. after it was deleted.
func (s *Session) ClearLastRuleID() {
	s.SetLastRuleID("")
}

func (s *Session) snapshot() sessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sessionRecord{
		Key:        s.Key,
		LastRuleID: s.lastRuleID,
		Created:    s.Created,
		Updated:    s.Updated,
	}
}

type sessionRecord struct {
	Key        string    `json:"key"`
	LastRuleID string    `json:"last_rule_id,omitempty"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
}
