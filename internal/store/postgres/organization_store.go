package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OrganizationStore manages organizations and their projects in PostgreSQL.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a new PostgreSQL-backed organization store.
// It shares the connection pool with other stores.
func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{
		pool: pool,
	}
}

// CreateOrganization creates a new organization in the database.
func (s *OrganizationStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	return insertOrganization(ctx, s.pool, org)
}

// CreateProject creates a project under an existing organization.
func (s *OrganizationStore) CreateProject(ctx context.Context, project *models.Project) error {
	return insertProject(ctx, s.pool, project)
}

func insertOrganization(ctx context.Context, q querier, org *models.Organization) error {
	query := `
		INSERT INTO core.organizations (
			id, name, owner_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := q.Exec(ctx, query,
		org.ID,
		org.Name,
		org.OwnerID,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganizationAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", org.ID.String()).
		Str("name", org.Name).
		Msg("Created organization")

	return nil
}

func insertProject(ctx context.Context, q querier, project *models.Project) error {
	query := `
		INSERT INTO core.projects (
			id, org_id, name, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := q.Exec(ctx, query,
		project.ID,
		project.OrgID,
		project.Name,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == constraintProjectsOrg {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create project: %w", mapPostgresError(err))
	}

	return nil
}
