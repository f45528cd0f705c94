package domain

import (
	"errors"
	"time"
)

// Server is a monitored host registered with the platform. The engine reads
// server records for alert titles and for server-group correlation lookups.
type Server struct {
	// ID is the unique identifier for this server.
	ID string `json:"id"`

	// OrganizationID identifies the tenant that owns this server.
	OrganizationID string `json:"organization_id"`

	// Name is the human-readable hostname used in alert text.
	Name string `json:"name"`

	// Groups lists the server groups this host belongs to, e.g. a cluster
	// or rack. Shared group membership boosts correlation scores.
	Groups []string `json:"groups,omitempty"`

	// CreatedAt is when the server was registered.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the server was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors for Server.
var (
	ErrEmptyServerName = errors.New("name is required")
	ErrServerNotFound  = errors.New("server not found")
)

// Validate checks if the server has all required fields.
func (s *Server) Validate() error {
	if s.Name == "" {
		return ErrEmptyServerName
	}
	if s.OrganizationID == "" {
		return ErrEmptyOrganizationID
	}
	return nil
}

// InGroup reports whether the server belongs to the named group.
func (s *Server) InGroup(group string) bool {
	for _, g := range s.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// CreateServerRequest represents the input for registering a server.
type CreateServerRequest struct {
	OrganizationID string   `json:"organization_id"`
	Name           string   `json:"name"`
	Groups         []string `json:"groups"`
}

// ToServer converts the request to a Server entity.
func (req *CreateServerRequest) ToServer(id string) *Server {
	now := time.Now().UTC()
	return &Server{
		ID:             id,
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Groups:         req.Groups,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UpdateServerRequest represents the input for updating a server.
type UpdateServerRequest struct {
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

// ApplyTo updates an existing Server with the request values.
func (req *UpdateServerRequest) ApplyTo(s *Server) {
	s.Name = req.Name
	s.Groups = req.Groups
	s.UpdatedAt = time.Now().UTC()
}
