package usecase

import "sync"

// accountLocks serializes sync cycles per account id. Entries are never
// removed; the map grows with the number of linked accounts, which is small.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) get(accountID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	return m
}
