package bot

import "sync"

// profileLocks hands out one mutex per profile.
type profileLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProfileLocks() *profileLocks {
	return &profileLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until the profile is free and returns its unlock func.
func (l *profileLocks) lock(profile string) func() {
	l.mu.Lock()
	m, exists := l.locks[profile]
	if !exists {
		m = &sync.Mutex{}
		l.locks[profile] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
