package application

import (
	"sync"

	"github.com/luca-patrignani/zkpoker/domain/poker"
)

// sessionLocks serialises transitions of the same session. Entries are
// dropped once nobody holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[poker.SessionID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[poker.SessionID]*sessionLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *sessionLocks) lock(id poker.SessionID) func() {
	l.mu.Lock()
	s, ok := l.locks[id]
	if !ok {
		s = &sessionLock{}
		l.locks[id] = s
	}
	s.refs++
	l.mu.Unlock()

	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		l.mu.Lock()
		s.refs--
		if s.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
