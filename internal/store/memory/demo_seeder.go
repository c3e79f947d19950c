package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/secondary-inference/console/internal/store/demo"
)

// EnsureDemoDataForUser seeds the demo fixture for userID unless the user already owns an organization.
func (s *Store) EnsureDemoDataForUser(ctx context.Context, userID uuid.UUID) error {
	fixture, err := demo.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, org := range s.organizations {
		if org.OwnerID == userID {
			log.Debug().Str("user_id", userID.String()).Msg("Demo data already present")
			return nil
		}
	}

	ds, err := fixture.Build(userID, s.now())
	if err != nil {
		return fmt.Errorf("failed to build demo data: %w", err)
	}

	org := *ds.Organization
	s.organizations[org.ID] = &org
	for _, p := range ds.Projects {
		project := *p
		s.projects[project.ID] = &project
	}
	for _, source := range ds.Sources {
		s.sources[source.ID] = cloneSource(source)
	}
	for _, job := range ds.Jobs {
		s.jobs[job.ID] = cloneJob(job)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("sources", len(ds.Sources)).
		Int("jobs", len(ds.Jobs)).
		Msg("Seeded demo data")

	return nil
}
