package conversation

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps sessions in process memory for the life of the process.
type MemoryStore struct {
	locks *keyedMutex

	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:    newKeyedMutex(),
		sessions: make(map[string]*State),
	}
}

// Get returns a copy of the session, or a fresh state if none exists yet.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionIDRequired
	}
	return s.load(sessionID), nil
}

// Save replaces the stored session.
func (s *MemoryStore) Save(_ context.Context, sessionID string, state *State) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionIDRequired
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	s.store(sessionID, state.Clone())
	return nil
}

// Reset puts the session back to its initial state.
func (s *MemoryStore) Reset(ctx context.Context, sessionID string) error {
	return s.Save(ctx, sessionID, NewState())
}

// Update runs fn on a copy of the session under the session's lock.
func (s *MemoryStore) Update(ctx context.Context, sessionID string, fn func(*State) error) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionIDRequired
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.load(sessionID)
	if err := fn(working); err != nil {
		return err
	}
	s.store(sessionID, working)
	return nil
}

// Len reports how many sessions have been stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) load(sessionID string) *State {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return NewState()
	}
	return st.Clone()
}

func (s *MemoryStore) store(sessionID string, st *State) {
	s.mu.Lock()
	s.sessions[sessionID] = st
	s.mu.Unlock()
}
