package memory

import (
	"context"
	"sync"
	"time"

	"vigil-go/internal/domain"
)

// MaintenanceWindowRepository is an in-memory implementation of
// store.MaintenanceWindowRepository.
type MaintenanceWindowRepository struct {
	mu      sync.RWMutex
	windows map[string]*domain.MaintenanceWindow
}

// NewMaintenanceWindowRepository creates a new in-memory window repository.
func NewMaintenanceWindowRepository() *MaintenanceWindowRepository {
	return &MaintenanceWindowRepository{
		windows: make(map[string]*domain.MaintenanceWindow),
	}
}

// Create stores a new maintenance window.
func (r *MaintenanceWindowRepository) Create(ctx context.Context, w *domain.MaintenanceWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wCopy := *w
	r.windows[w.ID] = &wCopy
	return nil
}

// Update modifies an existing maintenance window.
func (r *MaintenanceWindowRepository) Update(ctx context.Context, w *domain.MaintenanceWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.windows[w.ID]; !exists {
		return domain.ErrMaintenanceWindowNotFound
	}

	wCopy := *w
	r.windows[w.ID] = &wCopy
	return nil
}

// Delete removes a maintenance window by ID.
func (r *MaintenanceWindowRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.windows[id]; !exists {
		return domain.ErrMaintenanceWindowNotFound
	}

	delete(r.windows, id)
	return nil
}

// GetByID retrieves a maintenance window by its ID.
func (r *MaintenanceWindowRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, exists := r.windows[id]
	if !exists {
		return nil, domain.ErrMaintenanceWindowNotFound
	}

	result := *w
	return &result, nil
}

// List retrieves all maintenance windows.
func (r *MaintenanceWindowRepository) List(ctx context.Context) ([]*domain.MaintenanceWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.MaintenanceWindow, 0, len(r.windows))
	for _, w := range r.windows {
		wCopy := *w
		result = append(result, &wCopy)
	}
	return result, nil
}

// ActiveForServer reports whether the server is inside an enabled window.
func (r *MaintenanceWindowRepository) ActiveForServer(ctx context.Context, serverID string, now time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.windows {
		if w.ServerID == serverID && w.Covers(now) {
			return true, nil
		}
	}
	return false, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *MaintenanceWindowRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.windows = make(map[string]*domain.MaintenanceWindow)
}
