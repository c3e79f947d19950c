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

var _ store.JobStore = (*JobStore)(nil)

// JobStore implements store.JobStore using PostgreSQL.
// Rows are only inserted here; the external executor updates status and timestamps.
type JobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore creates a new PostgreSQL-backed job store.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

const jobColumns = `id, project_id, source_id, job_type, status, input_path, output_path, config,
	error_message, started_at, completed_at, created_at, updated_at`

// CreateJob inserts job and returns the row as stored.
func (s *JobStore) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	created, err := insertJob(ctx, s.pool, job)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("job_id", created.ID.String()).
		Str("source_id", created.SourceID.String()).
		Str("job_type", string(created.JobType)).
		Msg("Created job")

	return created, nil
}

// GetUserJobs returns jobs in projects owned by userID, newest first.
func (s *JobStore) GetUserJobs(ctx context.Context, userID uuid.UUID) ([]*models.JobListItem, error) {
	query := `
		SELECT j.id, j.project_id, j.source_id, j.job_type, j.status, j.input_path, j.output_path,
			j.config, j.error_message, j.started_at, j.completed_at, j.created_at, j.updated_at,
			s.id, s.name, s.kind, s.schema_version,
			p.id, p.name, p.org_id,
			o.id, o.name, o.owner_id
		FROM ingest.jobs j
		JOIN ingest.sources s ON s.id = j.source_id
		JOIN core.projects p ON p.id = j.project_id
		JOIN core.organizations o ON o.id = p.org_id
		WHERE o.owner_id = $1
		ORDER BY j.created_at DESC, j.id DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user jobs: %w", mapPostgresError(err))
	}
	defer rows.Close()

	items := []*models.JobListItem{}
	for rows.Next() {
		var item models.JobListItem
		err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.SourceID,
			&item.JobType,
			&item.Status,
			&item.InputPath,
			&item.OutputPath,
			&item.Config,
			&item.ErrorMessage,
			&item.StartedAt,
			&item.CompletedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Source.ID,
			&item.Source.Name,
			&item.Source.Kind,
			&item.Source.SchemaVersion,
			&item.Project.ID,
			&item.Project.Name,
			&item.Project.OrgID,
			&item.Project.Organization.ID,
			&item.Project.Organization.Name,
			&item.Project.Organization.OwnerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return items, nil
}

// sourceVisible reports whether sourceID sits under an organization owned by the
// same user as projectID.
func sourceVisible(ctx context.Context, q querier, sourceID, projectID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM ingest.sources s
			JOIN core.projects sp ON sp.id = s.project_id
			JOIN core.organizations so ON so.id = sp.org_id
			JOIN core.projects jp ON jp.id = $2
			JOIN core.organizations jo ON jo.id = jp.org_id
			WHERE s.id = $1 AND so.owner_id = jo.owner_id
		)
	`

	var visible bool
	if err := q.QueryRow(ctx, query, sourceID, projectID).Scan(&visible); err != nil {
		return false, fmt.Errorf("failed to check source: %w", mapPostgresError(err))
	}
	return visible, nil
}

func insertJob(ctx context.Context, q querier, job *models.Job) (*models.Job, error) {
	visible, err := sourceVisible(ctx, q, job.SourceID, job.ProjectID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, fmt.Errorf("failed to create job: %w", store.ErrSourceNotFound)
	}

	query := `
		INSERT INTO ingest.jobs (` + jobColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING ` + jobColumns

	config := job.Config
	if config == nil {
		config = map[string]any{}
	}

	var created models.Job
	err = q.QueryRow(ctx, query,
		job.ID,
		job.ProjectID,
		job.SourceID,
		string(job.JobType),
		string(job.Status),
		job.InputPath,
		job.OutputPath,
		config,
		job.ErrorMessage,
		job.StartedAt,
		job.CompletedAt,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(
		&created.ID,
		&created.ProjectID,
		&created.SourceID,
		&created.JobType,
		&created.Status,
		&created.InputPath,
		&created.OutputPath,
		&created.Config,
		&created.ErrorMessage,
		&created.StartedAt,
		&created.CompletedAt,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", mapPostgresError(err))
	}

	return &created, nil
}
