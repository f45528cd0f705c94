package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"vigil-go/internal/domain"
)

// MaintenanceWindowRepository implements store.MaintenanceWindowRepository
// using PostgreSQL.
type MaintenanceWindowRepository struct {
	db *DB
}

// NewMaintenanceWindowRepository creates a new PostgreSQL-backed window repository.
func NewMaintenanceWindowRepository(db *DB) *MaintenanceWindowRepository {
	return &MaintenanceWindowRepository{db: db}
}

// Create stores a new maintenance window.
func (r *MaintenanceWindowRepository) Create(ctx context.Context, w *domain.MaintenanceWindow) error {
	query := `
		INSERT INTO maintenance_windows (
			id, server_id, start_time, end_time, enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.pool.Exec(ctx, query,
		w.ID,
		w.ServerID,
		w.StartTime,
		w.EndTime,
		w.Enabled,
		w.CreatedAt,
		w.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create maintenance window: %w", err)
	}

	return nil
}

// Update modifies an existing maintenance window.
func (r *MaintenanceWindowRepository) Update(ctx context.Context, w *domain.MaintenanceWindow) error {
	query := `
		UPDATE maintenance_windows SET
			start_time = $2,
			end_time = $3,
			enabled = $4,
			updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		w.ID,
		w.StartTime,
		w.EndTime,
		w.Enabled,
		w.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update maintenance window: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrMaintenanceWindowNotFound
	}

	return nil
}

// Delete removes a maintenance window by ID.
func (r *MaintenanceWindowRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM maintenance_windows WHERE id = $1`

	result, err := r.db.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete maintenance window: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrMaintenanceWindowNotFound
	}

	return nil
}

// GetByID retrieves a maintenance window by its ID.
func (r *MaintenanceWindowRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceWindow, error) {
	query := `
		SELECT id, server_id, start_time, end_time, enabled, created_at, updated_at
		FROM maintenance_windows
		WHERE id = $1
	`

	w, err := scanMaintenanceWindow(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMaintenanceWindowNotFound
		}
		return nil, fmt.Errorf("failed to get maintenance window: %w", err)
	}

	return w, nil
}

// List retrieves all maintenance windows.
func (r *MaintenanceWindowRepository) List(ctx context.Context) ([]*domain.MaintenanceWindow, error) {
	query := `
		SELECT id, server_id, start_time, end_time, enabled, created_at, updated_at
		FROM maintenance_windows
		ORDER BY start_time DESC
	`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance windows: %w", err)
	}
	defer rows.Close()

	var windows []*domain.MaintenanceWindow
	for rows.Next() {
		w, err := scanMaintenanceWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan maintenance window: %w", err)
		}
		windows = append(windows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating maintenance windows: %w", err)
	}

	return windows, nil
}

// ActiveForServer reports whether the server is inside an enabled window.
func (r *MaintenanceWindowRepository) ActiveForServer(ctx context.Context, serverID string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM maintenance_windows
			WHERE server_id = $1 AND enabled AND start_time <= $2 AND end_time >= $2
		)
	`

	var active bool
	if err := r.db.pool.QueryRow(ctx, query, serverID, now).Scan(&active); err != nil {
		return false, fmt.Errorf("failed to check maintenance window: %w", err)
	}

	return active, nil
}

// scanMaintenanceWindow scans a single row into a MaintenanceWindow.
func scanMaintenanceWindow(row pgx.Row) (*domain.MaintenanceWindow, error) {
	var w domain.MaintenanceWindow

	err := row.Scan(
		&w.ID,
		&w.ServerID,
		&w.StartTime,
		&w.EndTime,
		&w.Enabled,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &w, nil
}
