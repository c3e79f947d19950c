package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/secondary-inference/console/internal/store"
	"github.com/secondary-inference/console/internal/store/demo"
)

var _ store.DemoSeeder = (*DemoSeeder)(nil)

// DemoSeeder implements store.DemoSeeder using PostgreSQL.
type DemoSeeder struct {
	pool *pgxpool.Pool
}

// NewDemoSeeder creates a new PostgreSQL-backed demo seeder.
func NewDemoSeeder(pool *pgxpool.Pool) *DemoSeeder {
	return &DemoSeeder{pool: pool}
}

// EnsureDemoDataForUser seeds the demo fixture for userID in a single transaction.
// A transaction-scoped advisory lock keyed on the user serialises concurrent calls,
// and nothing is written when the user already owns an organization.
func (s *DemoSeeder) EnsureDemoDataForUser(ctx context.Context, userID uuid.UUID) error {
	fixture, err := demo.Load()
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID.String()); err != nil {
		return fmt.Errorf("failed to acquire demo seed lock: %w", mapPostgresError(err))
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM core.organizations WHERE owner_id = $1)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing organizations: %w", mapPostgresError(err))
	}

	if exists {
		log.Debug().Str("user_id", userID.String()).Msg("Demo data already present")
		return nil
	}

	ds, err := fixture.Build(userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build demo data: %w", err)
	}

	if err := insertOrganization(ctx, tx, ds.Organization); err != nil {
		return err
	}
	for _, project := range ds.Projects {
		if err := insertProject(ctx, tx, project); err != nil {
			return err
		}
	}
	for _, source := range ds.Sources {
		if _, err := insertSource(ctx, tx, source); err != nil {
			return err
		}
	}
	for _, job := range ds.Jobs {
		if _, err := insertJob(ctx, tx, job); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit demo data: %w", mapPostgresError(err))
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("sources", len(ds.Sources)).
		Int("jobs", len(ds.Jobs)).
		Msg("Seeded demo data")

	return nil
}
