package app

import (
	"sync"

	"github.com/vanhieptech/livegate/internal/core"
)

// sessionLocks hands out one mutex per live session id so connect and
// disconnect handling is serialized per session without unrelated
// sessions ever contending. Entries are refcounted and dropped when the
// last holder releases, so the map does not grow with session churn.
type sessionLocks struct {
	mu sync.Mutex
	m  map[core.SessionID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{m: make(map[core.SessionID]*sessionLock)}
}

func (l *sessionLocks) acquire(sid core.SessionID) *sessionLock {
	l.mu.Lock()
	e, ok := l.m[sid]
	if !ok {
		e = &sessionLock{}
		l.m[sid] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return e
}

func (l *sessionLocks) release(sid core.SessionID, e *sessionLock) {
	e.mu.Unlock()
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.m, sid)
	}
	l.mu.Unlock()
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
