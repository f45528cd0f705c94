package memory

import (
	"context"
	"sort"
	"sync"

	"vigil-go/internal/domain"
)

// AlertRepository is an in-memory implementation of store.AlertRepository.
type AlertRepository struct {
	mu sync.RWMutex

	// alerts stores all alerts by ID
	alerts map[string]*domain.Alert

	// order preserves creation order for stable listing
	order []string
}

// NewAlertRepository creates a new in-memory alert repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{
		alerts: make(map[string]*domain.Alert),
	}
}

// Create stores a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alertCopy := *alert
	r.alerts[alert.ID] = &alertCopy
	r.order = append(r.order, alert.ID)
	return nil
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, exists := r.alerts[id]
	if !exists {
		return nil, domain.ErrAlertNotFound
	}

	result := *alert
	return &result, nil
}

// List retrieves alerts matching the filter criteria, newest first.
func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Alert
	for _, id := range r.order {
		alert := r.alerts[id]
		if !matchesFilter(alert, filter) {
			continue
		}
		alertCopy := *alert
		matched = append(matched, &alertCopy)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*domain.Alert{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesFilter(alert *domain.Alert, filter domain.AlertFilter) bool {
	if filter.OrganizationID != "" && alert.OrganizationID != filter.OrganizationID {
		return false
	}
	if filter.ServerID != "" && alert.ServerID != filter.ServerID {
		return false
	}
	if filter.RuleID != "" && alert.RuleID != filter.RuleID {
		return false
	}
	if filter.Status != "" && alert.Status != filter.Status {
		return false
	}
	if filter.Type != "" && alert.Type != filter.Type {
		return false
	}
	return true
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *AlertRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts = make(map[string]*domain.Alert)
	r.order = nil
}
