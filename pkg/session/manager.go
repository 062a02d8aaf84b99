package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/utils"
)

const sessionsFilename = "sessions.json"

// SessionManager hands out one Session per key. With a storage directory the
// last rule id of every session survives restarts, so a one-shot "/good"
// invocation can still rate the previous one.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	path     string
}

func NewSessionManager(storage string) *SessionManager {
	sm := &SessionManager{sessions: make(map[string]*Session)}
	if storage != "" {
		sm.path = filepath.Join(storage, sessionsFilename)
		sm.load()
	}
	return sm
}

func (sm *SessionManager) load() {
	data, err := os.ReadFile(sm.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("session", "Failed to read sessions", map[string]any{"error": err.Error()})
		}
		return
	}
	var records []sessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.WarnCF("session", "Ignoring corrupt sessions file", map[string]any{
			"path":  sm.path,
			"error": err.Error(),
		})
		return
	}
	for _, r := range records {
		if r.Key == "" {
			continue
		}
		sm.sessions[r.Key] = &Session{
			Key:        r.Key,
			Created:    r.Created,
			Updated:    r.Updated,
			lastRuleID: r.LastRuleID,
		}
	}
}

// GetOrCreate returns the session for key, creating it on first use.
func (sm *SessionManager) GetOrCreate(key string) *Session {
	sm.mu.RLock()
	s, ok := sm.sessions[key]
	sm.mu.RUnlock()
	if ok {
		return s
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[key]; ok {
		return s
	}
	s = New(key)
	sm.sessions[key] = s
	return s
}

func (sm *SessionManager) Get(key string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[key]
	return s, ok
}

func (sm *SessionManager) Delete(key string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, key)
}

// Keys lists session keys in sorted order.
func (sm *SessionManager) Keys() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	keys := make([]string, 0, len(sm.sessions))
	for k := range sm.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes every session to the storage directory. Without storage it is
// a no-op.
func (sm *SessionManager) Save() error {
	if sm.path == "" {
		return nil
	}
	sm.mu.RLock()
	records := make([]sessionRecord, 0, len(sm.sessions))
	for _, key := range sortedKeys(sm.sessions) {
		records = append(records, sm.sessions[key].snapshot())
	}
	sm.mu.RUnlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return utils.WriteFileAtomic(sm.path, data, 0o600, 0o755)
}

func sortedKeys(m map[string]*Session) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
