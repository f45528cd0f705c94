package memory

import (
	"context"
	"sync"
	"time"
)

// RecentAlertCounter is an in-memory implementation of
// store.RecentAlertCounter. Emission timestamps are kept per rule and
// pruned lazily on each operation.
type RecentAlertCounter struct {
	mu sync.Mutex

	// emissions stores firing timestamps per rule, oldest first
	emissions map[string][]time.Time

	// retention bounds how far back timestamps are kept
	retention time.Duration
}

// NewRecentAlertCounter creates a counter that retains emission timestamps
// for the given duration. The retention must cover the largest suppression
// window in use (one hour for the hourly cap).
func NewRecentAlertCounter(retention time.Duration) *RecentAlertCounter {
	return &RecentAlertCounter{
		emissions: make(map[string][]time.Time),
		retention: retention,
	}
}

// Record notes that the rule emitted an alert at the given instant.
func (c *RecentAlertCounter) Record(ctx context.Context, ruleID string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.emissions[ruleID] = append(c.prune(ruleID, at), at)
	return nil
}

// CountSince returns how many alerts the rule emitted at or after since.
func (c *RecentAlertCounter) CountSince(ctx context.Context, ruleID string, since time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, at := range c.emissions[ruleID] {
		if !at.Before(since) {
			count++
		}
	}
	return count, nil
}

// prune drops timestamps older than the retention horizon.
// Caller must hold the mutex.
func (c *RecentAlertCounter) prune(ruleID string, now time.Time) []time.Time {
	horizon := now.Add(-c.retention)
	kept := c.emissions[ruleID][:0]
	for _, at := range c.emissions[ruleID] {
		if !at.Before(horizon) {
			kept = append(kept, at)
		}
	}
	return kept
}

// Close releases any resources (no-op for the in-memory counter).
func (c *RecentAlertCounter) Close() error {
	return nil
}

// Clear removes all data from the counter. Useful for test cleanup.
func (c *RecentAlertCounter) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.emissions = make(map[string][]time.Time)
}
