package memory

import (
	"context"
	"sync"

	"vigil-go/internal/domain"
)

// ServerRepository is an in-memory implementation of store.ServerRepository.
type ServerRepository struct {
	mu      sync.RWMutex
	servers map[string]*domain.Server
}

// NewServerRepository creates a new in-memory server repository.
func NewServerRepository() *ServerRepository {
	return &ServerRepository{
		servers: make(map[string]*domain.Server),
	}
}

// Create registers a new server.
func (r *ServerRepository) Create(ctx context.Context, s *domain.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sCopy := *s
	r.servers[s.ID] = &sCopy
	return nil
}

// Update modifies an existing server.
func (r *ServerRepository) Update(ctx context.Context, s *domain.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.servers[s.ID]; !exists {
		return domain.ErrServerNotFound
	}

	sCopy := *s
	r.servers[s.ID] = &sCopy
	return nil
}

// Delete removes a server by ID.
func (r *ServerRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.servers[id]; !exists {
		return domain.ErrServerNotFound
	}

	delete(r.servers, id)
	return nil
}

// GetByID retrieves a server by its ID.
func (r *ServerRepository) GetByID(ctx context.Context, id string) (*domain.Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.servers[id]
	if !exists {
		return nil, domain.ErrServerNotFound
	}

	result := *s
	return &result, nil
}

// List retrieves all servers.
func (r *ServerRepository) List(ctx context.Context) ([]*domain.Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Server, 0, len(r.servers))
	for _, s := range r.servers {
		sCopy := *s
		result = append(result, &sCopy)
	}
	return result, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *ServerRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.servers = make(map[string]*domain.Server)
}
