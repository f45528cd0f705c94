// Package rules implements the rule engine: condition evaluation,
// breach-duration hysteresis, and alert suppression. A Store plus Engine
// pair is owned by exactly one shard worker; rule definitions may be
// hot-swapped from other goroutines, evaluation state may not.
package rules

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"vigil-go/internal/domain"
)

// EvaluationState is the mutable per-(rule, server) state the engine keeps
// between evaluation cycles. BreachStart is non-nil exactly while the rule's
// condition has held on every evaluation since it last went false; it resets
// the moment the condition fails or an alert is emitted.
type EvaluationState struct {
	BreachStart     *time.Time
	LastTriggeredAt *time.Time
	TriggerCount    int
}

// Store holds the compiled rules and evaluation state for one shard.
//
// Rule definitions are replaced atomically: every change rebuilds an
// immutable snapshot slice under the mutex, and Evaluate works off the
// snapshot it fetched at the start of the cycle. Evaluation state is only
// ever touched by the shard's single worker.
type Store struct {
	mu       sync.RWMutex
	compiled map[string]*domain.CompiledRule
	snapshot []*domain.CompiledRule

	// state is keyed by ruleID + "|" + serverID. The map is guarded by
	// stateMu because rule changes clear entries from other goroutines;
	// the EvaluationState values themselves are mutated only by the
	// shard worker.
	stateMu sync.Mutex
	state   map[string]*EvaluationState

	logger *slog.Logger
}

// NewStore creates an empty rule store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		compiled: make(map[string]*domain.CompiledRule),
		state:    make(map[string]*EvaluationState),
		logger:   logger,
	}
}

// Load bulk-loads rules, typically at shard startup. Rules that fail to
// compile are reported and skipped (configuration errors disable a rule,
// they never take the shard down). Returns the number of rules loaded.
func (s *Store) Load(ruleSet []*domain.Rule) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, rule := range ruleSet {
		compiled, err := rule.Compile()
		if err != nil {
			s.logger.Error("rule disabled: compilation failed",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"error", err,
			)
			continue
		}
		s.compiled[rule.ID] = compiled
		loaded++
	}
	s.rebuildSnapshot()
	return loaded
}

// AddRule compiles and installs a new rule. It takes effect on the next
// evaluation cycle.
func (s *Store) AddRule(rule *domain.Rule) error {
	compiled, err := rule.Compile()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.compiled[rule.ID] = compiled
	s.rebuildSnapshot()
	return nil
}

// UpdateRule replaces an existing rule definition. The rule's accumulated
// breach state is discarded: a changed threshold or duration starts a fresh
// sustained-breach window.
func (s *Store) UpdateRule(rule *domain.Rule) error {
	compiled, err := rule.Compile()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.compiled[rule.ID] = compiled
	s.rebuildSnapshot()
	s.mu.Unlock()

	s.clearState(rule.ID)
	return nil
}

// RemoveRule uninstalls a rule and drops its evaluation state.
func (s *Store) RemoveRule(ruleID string) {
	s.mu.Lock()
	delete(s.compiled, ruleID)
	s.rebuildSnapshot()
	s.mu.Unlock()

	s.clearState(ruleID)
}

// Snapshot returns the current immutable rule set. The returned slice must
// not be modified.
func (s *Store) Snapshot() []*domain.CompiledRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// rebuildSnapshot recomputes the published rule slice. Caller holds the mutex.
// Rules are ordered by ID so evaluation order is deterministic.
func (s *Store) rebuildSnapshot() {
	snap := make([]*domain.CompiledRule, 0, len(s.compiled))
	for _, c := range s.compiled {
		snap = append(snap, c)
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].ID < snap[j].ID })
	s.snapshot = snap
}

// StateFor returns the evaluation state for a (rule, server) pair,
// creating it on first use. Only the shard worker may mutate the returned
// state.
func (s *Store) StateFor(ruleID, serverID string) *EvaluationState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	key := stateKey(ruleID, serverID)
	st, ok := s.state[key]
	if !ok {
		st = &EvaluationState{}
		s.state[key] = st
	}
	return st
}

// PeekState returns the evaluation state for a (rule, server) pair without
// creating it.
func (s *Store) PeekState(ruleID, serverID string) (*EvaluationState, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	st, ok := s.state[stateKey(ruleID, serverID)]
	return st, ok
}

// clearState drops all evaluation state belonging to a rule.
func (s *Store) clearState(ruleID string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	prefix := ruleID + "|"
	for key := range s.state {
		if strings.HasPrefix(key, prefix) {
			delete(s.state, key)
		}
	}
}

func stateKey(ruleID, serverID string) string {
	return ruleID + "|" + serverID
}
