package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/secondary-inference/console/internal/store"
)

// NewBackend wires every PostgreSQL store onto a shared pool.
func NewBackend(pool *pgxpool.Pool) store.Backend {
	return store.Backend{
		Projects: NewProjectStore(pool),
		Sources:  NewSourceStore(pool),
		Jobs:     NewJobStore(pool),
		Demo:     NewDemoSeeder(pool),
	}
}
