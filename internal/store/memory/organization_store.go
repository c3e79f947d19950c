package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
)

var (
	_ store.ProjectStore = (*Store)(nil)
	_ store.SourceStore  = (*Store)(nil)
	_ store.JobStore     = (*Store)(nil)
	_ store.DemoSeeder   = (*Store)(nil)
)

// Store implements the backend store interfaces using in-memory storage.
// This implementation is for development and testing only - data is lost on restart.
type Store struct {
	mu sync.RWMutex

	organizations map[uuid.UUID]*models.Organization // org_id -> Organization
	projects      map[uuid.UUID]*models.Project      // project_id -> Project
	sources       map[uuid.UUID]*models.Source       // source_id -> Source
	jobs          map[uuid.UUID]*models.Job          // job_id -> Job

	now func() time.Time
}

// NewStore creates a new empty in-memory store.
func NewStore() *Store {
	return &Store{
		organizations: make(map[uuid.UUID]*models.Organization),
		projects:      make(map[uuid.UUID]*models.Project),
		sources:       make(map[uuid.UUID]*models.Source),
		jobs:          make(map[uuid.UUID]*models.Job),
		now:           time.Now,
	}
}

// Backend returns the store wired into every backend slot.
func (s *Store) Backend() store.Backend {
	return store.Backend{
		Projects: s,
		Sources:  s,
		Jobs:     s,
		Demo:     s,
	}
}

// CreateOrganization creates a new organization in memory.
func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[org.ID]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *org
	s.organizations[org.ID] = &clone

	return nil
}

// CreateProject creates a project under an existing organization.
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[project.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	clone := *project
	s.projects[project.ID] = &clone

	return nil
}

// GetUserProjects returns the projects under organizations owned by userID, oldest first.
func (s *Store) GetUserProjects(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Project
	for _, project := range s.projects {
		if _, ok := s.ownedProject(project.ID, userID); ok {
			clone := *project
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[j].CreatedAt, result[j].ID, result[i].CreatedAt, result[i].ID)
	})

	return result, nil
}

// ownedProject returns the project reference when projectID belongs to an organization owned by userID.
// Callers must hold the lock.
func (s *Store) ownedProject(projectID, userID uuid.UUID) (models.ProjectRef, bool) {
	project, ok := s.projects[projectID]
	if !ok {
		return models.ProjectRef{}, false
	}
	org, ok := s.organizations[project.OrgID]
	if !ok || org.OwnerID != userID {
		return models.ProjectRef{}, false
	}
	return models.ProjectRef{
		ID:           project.ID,
		Name:         project.Name,
		OrgID:        project.OrgID,
		Organization: org.Ref(),
	}, true
}

// projectOwner returns the owner of the organization projectID belongs to.
// Callers must hold the lock.
func (s *Store) projectOwner(projectID uuid.UUID) (uuid.UUID, bool) {
	project, ok := s.projects[projectID]
	if !ok {
		return uuid.Nil, false
	}
	org, ok := s.organizations[project.OrgID]
	if !ok {
		return uuid.Nil, false
	}
	return org.OwnerID, true
}

// newerFirst orders by creation time descending, breaking ties on the UUIDv7 id.
func newerFirst(aCreated time.Time, aID uuid.UUID, bCreated time.Time, bID uuid.UUID) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}
