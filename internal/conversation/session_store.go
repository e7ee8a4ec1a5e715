package conversation

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionIDRequired is returned for blank session identifiers.
var ErrSessionIDRequired = errors.New("conversation: session id required")

// Store keeps per-session state. Update is the only way to mutate state
// safely: implementations run fn while holding an exclusive per-session
// lock, hand it a private copy, and persist the copy only when fn succeeds.
// Different sessions never wait on each other.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, state *State) error
	Reset(ctx context.Context, sessionID string) error
	Update(ctx context.Context, sessionID string, fn func(*State) error) error
}

// keyedMutex hands out one mutex per key. Entries are dropped once no
// caller holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
