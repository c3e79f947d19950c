package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrSourceNotFound            = errors.New("source not found")
	ErrProjectNotFound           = errors.New("project not found")
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
)

// ProjectStore resolves the projects an identity can access.
type ProjectStore interface {
	// GetUserProjects returns the projects belonging to organizations owned by userID.
	// The order is defined by the store and callers must not rely on more than it being stable.
	GetUserProjects(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
}

// SourceStore persists and lists sources.
type SourceStore interface {
	// CreateSource inserts a fully populated source row and returns the persisted row.
	// Returns ErrProjectNotFound if the project does not exist.
	CreateSource(ctx context.Context, source *models.Source) (*models.Source, error)

	// ListUserSources returns sources in projects owned by userID, newest first.
	ListUserSources(ctx context.Context, userID uuid.UUID) ([]*models.SourceListItem, error)
}

// JobStore persists and lists jobs. Status transitions after creation belong to the external executor.
type JobStore interface {
	// CreateJob inserts a fully populated job row and returns the persisted row.
	// Returns ErrSourceNotFound if the referenced source does not exist or sits under
	// an organization with a different owner than the job's project.
	CreateJob(ctx context.Context, job *models.Job) (*models.Job, error)

	// GetUserJobs returns jobs in projects owned by userID, newest first.
	GetUserJobs(ctx context.Context, userID uuid.UUID) ([]*models.JobListItem, error)
}

// DemoSeeder populates sample rows for a new identity.
type DemoSeeder interface {
	// EnsureDemoDataForUser seeds the demo organization, project, sources and jobs for userID.
	// It is idempotent: calling it again for a user that already owns an organization is a no-op.
	EnsureDemoDataForUser(ctx context.Context, userID uuid.UUID) error
}

// Backend groups the remote data backend operations used by the console.
type Backend struct {
	Projects ProjectStore
	Sources  SourceStore
	Jobs     JobStore
	Demo     DemoSeeder
}
