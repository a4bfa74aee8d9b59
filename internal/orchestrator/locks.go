package orchestrator

import "sync"

// userLocks serializes turns per user identity. A duplicate webhook
// delivery racing a legitimate fast double-send waits here instead of
// interleaving with the first turn; the session version column covers the
// multi-replica case the in-process lock cannot.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the per-identity mutex and returns its unlock func.
func (l *userLocks) lock(identity string) func() {
	l.mu.Lock()
	m, ok := l.locks[identity]
	if !ok {
		m = &sync.Mutex{}
		l.locks[identity] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
