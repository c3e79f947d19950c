package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant in the backend.
// Each organization has exactly one owner identity and any number of projects.
type Organization struct {
	ID        uuid.UUID `json:"id"` // UUIDv7
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"` // identity of the signed-in user who owns the org
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationRef is the organization summary embedded in list results.
type OrganizationRef struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// Ref returns the summary form of the organization.
func (o *Organization) Ref() OrganizationRef {
	return OrganizationRef{ID: o.ID, Name: o.Name, OwnerID: o.OwnerID}
}
