package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"vigil-go/internal/domain"
)

// ServerRepository implements store.ServerRepository using PostgreSQL.
type ServerRepository struct {
	db *DB
}

// NewServerRepository creates a new PostgreSQL-backed server repository.
func NewServerRepository(db *DB) *ServerRepository {
	return &ServerRepository{db: db}
}

// Create registers a new server.
func (r *ServerRepository) Create(ctx context.Context, s *domain.Server) error {
	query := `
		INSERT INTO servers (
			id, organization_id, name, groups, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	groups, err := json.Marshal(s.Groups)
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, query,
		s.ID,
		s.OrganizationID,
		s.Name,
		groups,
		s.CreatedAt,
		s.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return nil
}

// Update modifies an existing server.
func (r *ServerRepository) Update(ctx context.Context, s *domain.Server) error {
	query := `
		UPDATE servers SET
			name = $2,
			groups = $3,
			updated_at = $4
		WHERE id = $1
	`

	groups, err := json.Marshal(s.Groups)
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}

	result, err := r.db.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		groups,
		s.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update server: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrServerNotFound
	}

	return nil
}

// Delete removes a server by ID.
func (r *ServerRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM servers WHERE id = $1`

	result, err := r.db.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrServerNotFound
	}

	return nil
}

// GetByID retrieves a server by its ID.
func (r *ServerRepository) GetByID(ctx context.Context, id string) (*domain.Server, error) {
	query := `
		SELECT id, organization_id, name, groups, created_at, updated_at
		FROM servers
		WHERE id = $1
	`

	s, err := scanServer(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return s, nil
}

// List retrieves all servers.
func (r *ServerRepository) List(ctx context.Context) ([]*domain.Server, error) {
	query := `
		SELECT id, organization_id, name, groups, created_at, updated_at
		FROM servers
		ORDER BY created_at DESC
	`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var servers []*domain.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating servers: %w", err)
	}

	return servers, nil
}

// scanServer scans a single row into a Server.
func scanServer(row pgx.Row) (*domain.Server, error) {
	var (
		s      domain.Server
		groups []byte
	)

	err := row.Scan(
		&s.ID,
		&s.OrganizationID,
		&s.Name,
		&groups,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(groups) > 0 {
		if err := json.Unmarshal(groups, &s.Groups); err != nil {
			return nil, fmt.Errorf("failed to decode groups: %w", err)
		}
	}

	return &s, nil
}
