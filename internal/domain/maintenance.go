package domain

import (
	"errors"
	"time"
)

// MaintenanceWindow marks a span of time during which alerts for a host are
// suppressed. Windows are managed externally; the engine only reads them.
type MaintenanceWindow struct {
	// ID is the unique identifier for this window.
	ID string `json:"id"`

	// ServerID identifies the host under maintenance.
	ServerID string `json:"server_id"`

	// StartTime is when the window opens.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the window closes.
	EndTime time.Time `json:"end_time"`

	// Enabled gates the window; disabled windows never suppress.
	Enabled bool `json:"enabled"`

	// CreatedAt is when the window was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the window was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors for MaintenanceWindow.
var (
	ErrInvalidWindowRange        = errors.New("end_time must be after start_time")
	ErrMaintenanceWindowNotFound = errors.New("maintenance window not found")
)

// Validate checks if the window has all required fields with a sane range.
func (w *MaintenanceWindow) Validate() error {
	if w.ServerID == "" {
		return ErrEmptyServerID
	}
	if !w.EndTime.After(w.StartTime) {
		return ErrInvalidWindowRange
	}
	return nil
}

// Covers reports whether the window suppresses alerts at the given instant.
func (w *MaintenanceWindow) Covers(now time.Time) bool {
	return w.Enabled && !now.Before(w.StartTime) && !now.After(w.EndTime)
}

// CreateMaintenanceWindowRequest represents the input for creating a window.
type CreateMaintenanceWindowRequest struct {
	ServerID  string    `json:"server_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Enabled   *bool     `json:"enabled"`
}

// ToMaintenanceWindow converts the request to a MaintenanceWindow entity.
// New windows are enabled unless the request says otherwise.
func (req *CreateMaintenanceWindowRequest) ToMaintenanceWindow(id string) *MaintenanceWindow {
	now := time.Now().UTC()
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return &MaintenanceWindow{
		ID:        id,
		ServerID:  req.ServerID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateMaintenanceWindowRequest represents the input for updating a window.
type UpdateMaintenanceWindowRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Enabled   *bool     `json:"enabled"`
}

// ApplyTo updates an existing MaintenanceWindow with the request values.
func (req *UpdateMaintenanceWindowRequest) ApplyTo(w *MaintenanceWindow) {
	w.StartTime = req.StartTime
	w.EndTime = req.EndTime
	if req.Enabled != nil {
		w.Enabled = *req.Enabled
	}
	w.UpdatedAt = time.Now().UTC()
}
