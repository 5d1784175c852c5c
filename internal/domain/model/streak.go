package model

import "time"

// Streak counts calendar days (UTC) with at least one counted solve.
// Missed days do not reset Current.
type Streak struct {
	Current     int        `json:"current"`
	Longest     int        `json:"longest"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Advance bumps the streak unless it was already bumped on now's calendar day.
// It reports whether anything changed. Longest >= Current holds afterwards.
func (s *Streak) Advance(now time.Time) bool {
	if s.LastUpdated != nil && SameDay(*s.LastUpdated, now) {
		return false
	}
	s.Current++
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	at := now
	s.LastUpdated = &at
	return true
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
