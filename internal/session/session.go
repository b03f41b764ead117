// Package session holds the script submitted for each session.
package session

import (
	"context"
	"sync"
	"time"
)

// DefaultID is the session used by requests that do not name one.
const DefaultID = "default"

// Script is the last script submitted to a session.
type Script struct {
	SessionID string
	Text      string
	UpdatedAt time.Time
}

// Store keeps one script per session. Put overwrites.
type Store interface {
	Put(ctx context.Context, sessionID, text string) error
	Get(ctx context.Context, sessionID string) (Script, bool, error)
	Close() error
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu      sync.RWMutex
	scripts map[string]Script
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scripts: make(map[string]Script), now: time.Now}
}

func (s *MemoryStore) Put(ctx context.Context, sessionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[sessionID] = Script{SessionID: sessionID, Text: text, UpdatedAt: s.now()}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (Script, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scripts[sessionID]
	return sc, ok, nil
}

func (s *MemoryStore) Close() error { return nil }
