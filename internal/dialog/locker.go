package dialog

import "sync"

// Locker serializes work per actor. Entries are dropped once nobody holds
// or waits for them.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*lockEntry)}
}

// Lock blocks until actorID is free and returns the matching unlock func.
func (l *Locker) Lock(actorID int64) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[actorID]
	if !ok {
		e = &lockEntry{}
		l.locks[actorID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, actorID)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
