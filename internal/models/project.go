package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups sources and jobs. It belongs to exactly one organization.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OrgID     uuid.UUID `json:"org_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectRef is the project summary embedded in list results, carrying its organization.
type ProjectRef struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	OrgID        uuid.UUID       `json:"org_id"`
	Organization OrganizationRef `json:"organization"`
}
