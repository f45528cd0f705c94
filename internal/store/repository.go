// Package store defines interfaces for data persistence and state lookups.
// These abstractions allow swapping implementations (PostgreSQL, Redis,
// in-memory) without changing engine or API logic.
package store

import (
	"context"
	"time"

	"vigil-go/internal/domain"
)

// RuleRepository defines the interface for alert rule persistence.
type RuleRepository interface {
	// Create stores a new rule.
	Create(ctx context.Context, rule *domain.Rule) error

	// Update modifies an existing rule.
	Update(ctx context.Context, rule *domain.Rule) error

	// Delete removes a rule by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a rule by its ID.
	GetByID(ctx context.Context, id string) (*domain.Rule, error)

	// ListByOrganization retrieves all rules for a tenant. This is the bulk
	// load used when a shard starts up.
	ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Rule, error)

	// List retrieves all rules.
	List(ctx context.Context) ([]*domain.Rule, error)
}

// AlertRepository defines the interface for persistent alert storage.
type AlertRepository interface {
	// Create stores a new alert.
	Create(ctx context.Context, alert *domain.Alert) error

	// GetByID retrieves an alert by its ID.
	GetByID(ctx context.Context, id string) (*domain.Alert, error)

	// List retrieves alerts matching the filter criteria.
	List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error)
}

// RecentAlertCounter tracks per-rule alert emissions over a sliding window.
// It backs the hourly-cap suppression check. Backed by a Redis sorted set in
// production; an in-memory ring otherwise.
type RecentAlertCounter interface {
	// Record notes that the rule emitted an alert at the given instant.
	Record(ctx context.Context, ruleID string, at time.Time) error

	// CountSince returns how many alerts the rule emitted at or after the
	// given instant.
	CountSince(ctx context.Context, ruleID string, since time.Time) (int, error)

	// Close releases any resources held by the counter.
	Close() error
}

// MaintenanceWindowRepository defines the interface for maintenance window
// persistence and the engine's in-maintenance lookup.
type MaintenanceWindowRepository interface {
	// Create stores a new maintenance window.
	Create(ctx context.Context, w *domain.MaintenanceWindow) error

	// Update modifies an existing maintenance window.
	Update(ctx context.Context, w *domain.MaintenanceWindow) error

	// Delete removes a maintenance window by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a maintenance window by its ID.
	GetByID(ctx context.Context, id string) (*domain.MaintenanceWindow, error)

	// List retrieves all maintenance windows.
	List(ctx context.Context) ([]*domain.MaintenanceWindow, error)

	// ActiveForServer reports whether the server is inside an enabled
	// window at the given instant.
	ActiveForServer(ctx context.Context, serverID string, now time.Time) (bool, error)
}

// ServerRepository defines the interface for monitored-server records.
// It backs the alert-text ServerInfo lookup and the group-membership
// lookup used by correlation scoring.
type ServerRepository interface {
	// Create registers a new server.
	Create(ctx context.Context, s *domain.Server) error

	// Update modifies an existing server.
	Update(ctx context.Context, s *domain.Server) error

	// Delete removes a server by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a server by its ID.
	GetByID(ctx context.Context, id string) (*domain.Server, error)

	// List retrieves all servers.
	List(ctx context.Context) ([]*domain.Server, error)
}
