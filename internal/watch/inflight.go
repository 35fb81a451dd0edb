package watch

import "sync"

// inFlight tracks paths whose pipeline pass is currently running so that
// duplicate filesystem events for the same path are dropped instead of
// starting a concurrent second pass. Keyed by path, not content hash: two
// paths with identical bytes both run, and the ledger settles it downstream.
type inFlight struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{paths: make(map[string]struct{})}
}

// tryAcquire claims path for processing. Returns false if the path is
// already in flight.
func (s *inFlight) tryAcquire(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.paths[path]; busy {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

// release returns path to the idle state
func (s *inFlight) release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.paths, path)
}
