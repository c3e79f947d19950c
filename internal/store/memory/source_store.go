package memory

import (
	"context"
	"maps"
	"sort"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
)

// CreateSource stores a copy of source and returns the persisted row.
func (s *Store) CreateSource(ctx context.Context, source *models.Source) (*models.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[source.ProjectID]; !exists {
		return nil, store.ErrProjectNotFound
	}

	clone := cloneSource(source)
	s.sources[clone.ID] = clone

	return cloneSource(clone), nil
}

// ListUserSources returns sources in projects owned by userID, newest first.
func (s *Store) ListUserSources(ctx context.Context, userID uuid.UUID) ([]*models.SourceListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.SourceListItem{}
	for _, source := range s.sources {
		project, ok := s.ownedProject(source.ProjectID, userID)
		if !ok {
			continue
		}
		result = append(result, &models.SourceListItem{
			Source:  *cloneSource(source),
			Project: project,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})

	return result, nil
}

func cloneSource(source *models.Source) *models.Source {
	clone := *source
	clone.Metadata = maps.Clone(source.Metadata)
	if clone.Metadata == nil {
		clone.Metadata = map[string]any{}
	}
	return &clone
}
