package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
)

// ProjectResolver picks the project new sources and jobs attach to.
// It takes the first project the backend returns for the caller; there is no
// project selection yet.
type ProjectResolver struct {
	projects store.ProjectStore
}

// NewProjectResolver creates a resolver over projects.
func NewProjectResolver(projects store.ProjectStore) *ProjectResolver {
	return &ProjectResolver{projects: projects}
}

// Resolve returns the target project for userID, or ErrNoProject when the user
// has none or the lookup failed.
func (r *ProjectResolver) Resolve(ctx context.Context, userID uuid.UUID) (*models.Project, error) {
	projects, err := r.projects.GetUserProjects(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error fetching user projects")
		return nil, ErrNoProject
	}

	if len(projects) == 0 {
		return nil, ErrNoProject
	}

	return projects[0], nil
}
