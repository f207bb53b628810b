package hotcue

import "sync"

// Store is the live, mutable hotcue set for one editing session. Every
// mutation is visible to readers as soon as the call returns, so a keyboard
// handler deciding set-vs-jump always sees the state as of its own keystroke.
type Store struct {
	mu   sync.Mutex
	cues Set
}

func NewStore() *Store {
	return &Store{cues: Set{}}
}

// Set binds key to a cue at the given time, replacing any existing binding.
func (s *Store) Set(key string, time float64, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues[key] = Cue{Time: time, Label: label}
}

// Clear removes the binding for key, if any.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cues, key)
}

// UpdateLabel changes the label of an existing cue. It reports whether the
// key was bound; the time is never touched.
func (s *Store) UpdateLabel(key, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cue, ok := s.cues[key]
	if !ok {
		return false
	}
	cue.Label = label
	s.cues[key] = cue
	return true
}

func (s *Store) Get(key string) (Cue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cue, ok := s.cues[key]
	return cue, ok
}

// All returns an independent snapshot of the current set.
func (s *Store) All() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cues.Clone()
}

// Replace swaps the entire set for a copy of the given one.
func (s *Store) Replace(set Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = set.Clone()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cues)
}
