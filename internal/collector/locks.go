package collector

import "sync"

// scopeLocks serializes cycles per (provider, source) scope within this
// process. The set of scopes is small and stable, so entries are never
// evicted.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (s *scopeLocks) acquire(key string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
