// Package memory provides in-memory implementations of the store interfaces.
// These are useful for testing and development without external dependencies.
package memory

import (
	"context"
	"sync"

	"vigil-go/internal/domain"
)

// RuleRepository is an in-memory implementation of store.RuleRepository.
type RuleRepository struct {
	mu sync.RWMutex

	// rules stores all rules by ID
	rules map[string]*domain.Rule

	// byOrg indexes rule IDs by organization for shard bulk loads
	byOrg map[string]map[string]struct{}
}

// NewRuleRepository creates a new in-memory rule repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		rules: make(map[string]*domain.Rule),
		byOrg: make(map[string]map[string]struct{}),
	}
}

// Create stores a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; exists {
		return domain.ErrRuleAlreadyExists
	}

	ruleCopy := *rule
	r.rules[rule.ID] = &ruleCopy

	if r.byOrg[rule.OrganizationID] == nil {
		r.byOrg[rule.OrganizationID] = make(map[string]struct{})
	}
	r.byOrg[rule.OrganizationID][rule.ID] = struct{}{}

	return nil
}

// Update modifies an existing rule.
func (r *RuleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.rules[rule.ID]
	if !exists {
		return domain.ErrRuleNotFound
	}

	// The organization of a rule never changes, so the index stays valid.
	ruleCopy := *rule
	ruleCopy.OrganizationID = existing.OrganizationID
	r.rules[rule.ID] = &ruleCopy

	return nil
}

// Delete removes a rule by ID.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, exists := r.rules[id]
	if !exists {
		return domain.ErrRuleNotFound
	}

	delete(r.rules, id)
	if orgSet := r.byOrg[rule.OrganizationID]; orgSet != nil {
		delete(orgSet, id)
	}

	return nil
}

// GetByID retrieves a rule by its ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[id]
	if !exists {
		return nil, domain.ErrRuleNotFound
	}

	result := *rule
	return &result, nil
}

// ListByOrganization retrieves all rules for a tenant.
func (r *RuleRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byOrg[organizationID]
	result := make([]*domain.Rule, 0, len(ids))
	for id := range ids {
		ruleCopy := *r.rules[id]
		result = append(result, &ruleCopy)
	}
	return result, nil
}

// List retrieves all rules.
func (r *RuleRepository) List(ctx context.Context) ([]*domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		ruleCopy := *rule
		result = append(result, &ruleCopy)
	}
	return result, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *RuleRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = make(map[string]*domain.Rule)
	r.byOrg = make(map[string]map[string]struct{})
}
