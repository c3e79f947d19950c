package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
)

var _ store.SourceStore = (*SourceStore)(nil)

// SourceStore implements store.SourceStore using PostgreSQL.
type SourceStore struct {
	pool *pgxpool.Pool
}

// NewSourceStore creates a new PostgreSQL-backed source store.
func NewSourceStore(pool *pgxpool.Pool) *SourceStore {
	return &SourceStore{pool: pool}
}

// CreateSource inserts source and returns the row as stored.
func (s *SourceStore) CreateSource(ctx context.Context, source *models.Source) (*models.Source, error) {
	created, err := insertSource(ctx, s.pool, source)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("source_id", created.ID.String()).
		Str("project_id", created.ProjectID.String()).
		Str("kind", string(created.Kind)).
		Msg("Created source")

	return created, nil
}

// ListUserSources returns sources in projects owned by userID, newest first.
func (s *SourceStore) ListUserSources(ctx context.Context, userID uuid.UUID) ([]*models.SourceListItem, error) {
	query := `
		SELECT s.id, s.project_id, s.name, s.kind, s.schema_version, s.status, s.metadata,
			s.created_at, s.updated_at,
			p.id, p.name, p.org_id,
			o.id, o.name, o.owner_id
		FROM ingest.sources s
		JOIN core.projects p ON p.id = s.project_id
		JOIN core.organizations o ON o.id = p.org_id
		WHERE o.owner_id = $1
		ORDER BY s.created_at DESC, s.id DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", mapPostgresError(err))
	}
	defer rows.Close()

	items := []*models.SourceListItem{}
	for rows.Next() {
		var item models.SourceListItem
		err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.Name,
			&item.Kind,
			&item.SchemaVersion,
			&item.Status,
			&item.Metadata,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Project.ID,
			&item.Project.Name,
			&item.Project.OrgID,
			&item.Project.Organization.ID,
			&item.Project.Organization.Name,
			&item.Project.Organization.OwnerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return items, nil
}

func insertSource(ctx context.Context, q querier, source *models.Source) (*models.Source, error) {
	query := `
		INSERT INTO ingest.sources (
			id, project_id, name, kind, schema_version, status, metadata, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING id, project_id, name, kind, schema_version, status, metadata, created_at, updated_at
	`

	metadata := source.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	var created models.Source
	err := q.QueryRow(ctx, query,
		source.ID,
		source.ProjectID,
		source.Name,
		string(source.Kind),
		source.SchemaVersion,
		string(source.Status),
		metadata,
		source.CreatedAt,
		source.UpdatedAt,
	).Scan(
		&created.ID,
		&created.ProjectID,
		&created.Name,
		&created.Kind,
		&created.SchemaVersion,
		&created.Status,
		&created.Metadata,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", mapPostgresError(err))
	}

	return &created, nil
}
