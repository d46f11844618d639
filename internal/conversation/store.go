package conversation

import (
	"context"
	"sync"
)

// Store keeps the current state of each user. A user without a stored state is Idle.
type Store interface {
	Get(ctx context.Context, userID int64) (State, error)
	Set(ctx context.Context, userID int64, state State) error
}

// MemoryStore keeps states in process memory; they are lost on restart
type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]State)}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[userID]
	if !ok {
		return Idle{}, nil
	}
	return state, nil
}

func (s *MemoryStore) Set(_ context.Context, userID int64, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, idle := state.(Idle); idle || state == nil {
		delete(s.states, userID)
		return nil
	}
	s.states[userID] = state
	return nil
}

// Locker serializes work per user while letting different users run in parallel
type Locker struct {
	mu    sync.Mutex
	users map[int64]*userLock
}

type userLock struct {
	mu      sync.Mutex
	waiters int
}

// NewLocker creates a Locker
func NewLocker() *Locker {
	return &Locker{users: make(map[int64]*userLock)}
}

// Lock blocks until the user's lock is held and returns the function releasing it
func (l *Locker) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.users[userID]
	if !ok {
		ul = &userLock{}
		l.users[userID] = ul
	}
	ul.waiters++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() {
		ul.mu.Unlock()

		l.mu.Lock()
		ul.waiters--
		if ul.waiters == 0 {
			delete(l.users, userID)
		}
		l.mu.Unlock()
	}
}
