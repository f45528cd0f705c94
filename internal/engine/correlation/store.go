// Package correlation implements the correlation engine: newly created
// alerts are scored against recent alerts from the same organization, and
// clusters that likely share a root cause are folded into a single
// correlated alert.
package correlation

import (
	"time"

	"vigil-go/internal/domain"
)

// MatchRef records one correlation match on a candidate.
type MatchRef struct {
	AlertID string  `json:"alert_id"`
	Score   float64 `json:"score"`
}

// Candidate wraps an alert held in the correlation window.
type Candidate struct {
	Alert      *domain.Alert
	InsertedAt time.Time

	// Matches accumulates the correlations this candidate participated in.
	Matches []MatchRef
}

// Store is the sliding-window candidate store for one shard. It has no
// internal locking: exactly one worker goroutine mutates it, the same one
// that drives the rule engine for the shard.
type Store struct {
	// candidates is ordered by insertion time, oldest first.
	candidates []*Candidate
}

// NewStore creates an empty candidate store.
func NewStore() *Store {
	return &Store{}
}

// Add inserts an alert into the window and returns its candidate wrapper.
func (s *Store) Add(alert *domain.Alert, now time.Time) *Candidate {
	c := &Candidate{Alert: alert, InsertedAt: now}
	s.candidates = append(s.candidates, c)
	return c
}

// Evict drops candidates inserted before the horizon. Insertion order makes
// this a prefix trim.
func (s *Store) Evict(horizon time.Time) {
	i := 0
	for i < len(s.candidates) && s.candidates[i].InsertedAt.Before(horizon) {
		i++
	}
	if i > 0 {
		s.candidates = append([]*Candidate(nil), s.candidates[i:]...)
	}
}

// All returns the live candidates, oldest first. The returned slice is the
// store's own backing array; callers must not retain it across mutations.
func (s *Store) All() []*Candidate {
	return s.candidates
}

// Len returns the number of live candidates.
func (s *Store) Len() int {
	return len(s.candidates)
}
