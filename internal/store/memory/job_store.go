package memory

import (
	"context"
	"maps"
	"sort"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
)

// CreateJob stores a copy of job and returns the persisted row.
func (s *Store) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.projectOwner(job.ProjectID)
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	source, exists := s.sources[job.SourceID]
	if !exists {
		return nil, store.ErrSourceNotFound
	}
	// A source owned by someone else is reported the same as a missing one.
	if sourceOwner, ok := s.projectOwner(source.ProjectID); !ok || sourceOwner != owner {
		return nil, store.ErrSourceNotFound
	}

	clone := cloneJob(job)
	s.jobs[clone.ID] = clone

	return cloneJob(clone), nil
}

// GetUserJobs returns jobs in projects owned by userID, newest first.
func (s *Store) GetUserJobs(ctx context.Context, userID uuid.UUID) ([]*models.JobListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.JobListItem{}
	for _, job := range s.jobs {
		project, ok := s.ownedProject(job.ProjectID, userID)
		if !ok {
			continue
		}
		item := &models.JobListItem{
			Job:     *cloneJob(job),
			Project: project,
		}
		if source, ok := s.sources[job.SourceID]; ok {
			item.Source = source.Ref()
		}
		result = append(result, item)
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})

	return result, nil
}

func cloneJob(job *models.Job) *models.Job {
	clone := *job
	clone.Config = maps.Clone(job.Config)
	if clone.Config == nil {
		clone.Config = map[string]any{}
	}
	return &clone
}
