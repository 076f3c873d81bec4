package store

import "time"

// SetClock replaces the time source used for updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
