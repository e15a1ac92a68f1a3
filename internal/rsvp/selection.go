package rsvp

import "sync"

// Selection tracks the one guest picked from a search result. Picking a
// second guest replaces the first; picking the same guest again clears it.
type Selection struct {
	mu sync.Mutex
	id int64
}

// Toggle selects id, or clears the selection when id is already selected.
// It reports whether id is selected afterwards.
func (s *Selection) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == id {
		s.id = 0
		return false
	}
	s.id = id
	return true
}

// Selected returns the selected guest id, or 0 when nothing is selected.
func (s *Selection) Selected() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Require returns the selected id or an INVALID error when nothing is selected.
func (s *Selection) Require() (int64, error) {
	if id := s.Selected(); id != 0 {
		return id, nil
	}
	return 0, invalid("Please select your name first.")
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = 0
}
