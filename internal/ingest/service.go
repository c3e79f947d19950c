package ingest

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/secondary-inference/console/internal/auth"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
	"github.com/secondary-inference/console/internal/telemetry"
)

// Caller-facing messages for backend failures.
const (
	MsgFetchSourcesFailed  = "Failed to fetch sources"
	MsgFetchJobsFailed     = "Failed to fetch jobs"
	MsgFetchProjectsFailed = "Failed to fetch projects"
	MsgCreateSourceFailed  = "Failed to create source"
	MsgCreateJobFailed     = "Failed to create job"
	MsgSetupDemoFailed     = "Failed to setup demo data"
)

// Service implements the console operations on top of a store.Backend.
// It holds no mutable state of its own; every call is independent.
type Service struct {
	backend  store.Backend
	resolver *ProjectResolver
	metrics  *telemetry.Metrics
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a service over backend.
func NewService(backend store.Backend, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		resolver: NewProjectResolver(backend.Projects),
		metrics:  telemetry.GetMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListSources returns the caller's sources, newest first.
func (s *Service) ListSources(ctx context.Context, id *auth.Identity) ([]*models.SourceListItem, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}

	items, err := s.backend.Sources.ListUserSources(ctx, id.UserID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error fetching sources")
		return nil, &PersistenceError{Message: MsgFetchSourcesFailed, Err: err}
	}

	return items, nil
}

// CreateSource validates body and registers a new active source under the
// caller's first project.
func (s *Service) CreateSource(ctx context.Context, id *auth.Identity, body []byte) (*models.Source, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}

	req, err := ParseCreateSource(body)
	if err != nil {
		return nil, err
	}

	return s.createSource(ctx, id, req)
}

// CreateSourceFromRequest is CreateSource for callers that decoded the request
// themselves, such as the HTML form handler.
func (s *Service) CreateSourceFromRequest(ctx context.Context, id *auth.Identity, req *CreateSourceRequest) (*models.Source, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}

	validated, err := ValidateCreateSource(req)
	if err != nil {
		return nil, err
	}

	return s.createSource(ctx, id, validated)
}

func (s *Service) createSource(ctx context.Context, id *auth.Identity, req *ValidatedSource) (*models.Source, error) {
	project, err := s.resolver.Resolve(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	source := &models.Source{
		ID:            uuid.Must(uuid.NewV7()),
		ProjectID:     project.ID,
		Name:          req.Name,
		Kind:          req.Kind,
		SchemaVersion: req.SchemaVersion,
		Status:        models.SourceStatusActive,
		Metadata:      orEmpty(req.Metadata),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.backend.Sources.CreateSource(ctx, source)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error creating source")
		return nil, &PersistenceError{Message: MsgCreateSourceFailed, Err: err}
	}

	s.metrics.SourcesCreatedTotal.Add(ctx, 1)

	zerolog.Ctx(ctx).Info().
		Str("source_id", created.ID.String()).
		Str("kind", string(created.Kind)).
		Msg("Source created")

	return created, nil
}

// ListJobs returns the caller's jobs with their source, newest first.
func (s *Service) ListJobs(ctx context.Context, id *auth.Identity) ([]*models.JobListItem, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}

	items, err := s.backend.Jobs.GetUserJobs(ctx, id.UserID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error fetching jobs")
		return nil, &PersistenceError{Message: MsgFetchJobsFailed, Err: err}
	}

	return items, nil
}

// CreateJob validates body and enqueues a job against an existing source.
// The job starts queued; later transitions belong to the external executor.
func (s *Service) CreateJob(ctx context.Context, id *auth.Identity, body []byte) (*models.Job, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}

	req, err := ParseCreateJob(body)
	if err != nil {
		return nil, err
	}

	project, err := s.resolver.Resolve(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &models.Job{
		ID:        uuid.Must(uuid.NewV7()),
		ProjectID: project.ID,
		SourceID:  req.SourceID,
		JobType:   req.JobType,
		Status:    models.JobStatusQueued,
		InputPath: req.InputPath,
		Config:    orEmpty(req.Config),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.backend.Jobs.CreateJob(ctx, job)
	if err != nil {
		if errors.Is(err, store.ErrSourceNotFound) {
			return nil, validationErrorf("Source not found")
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error creating job")
		return nil, &PersistenceError{Message: MsgCreateJobFailed, Err: err}
	}

	s.metrics.JobsEnqueuedTotal.Add(ctx, 1)

	zerolog.Ctx(ctx).Info().
		Str("job_id", created.ID.String()).
		Str("job_type", string(created.JobType)).
		Msg("Job enqueued")

	return created, nil
}

// SetupDemoData seeds the demo organization for the caller. Repeat calls
// leave existing data untouched.
func (s *Service) SetupDemoData(ctx context.Context, id *auth.Identity) error {
	if id == nil {
		return ErrUnauthorized
	}

	if err := s.backend.Demo.EnsureDemoDataForUser(ctx, id.UserID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error setting up demo data")
		return &PersistenceError{Message: MsgSetupDemoFailed, Err: err}
	}

	s.metrics.DemoSeededTotal.Add(ctx, 1)

	return nil
}

// TestSetupResult is the diagnostic report returned by TestSetup.
type TestSetupResult struct {
	Success  bool              `json:"success"`
	UserID   uuid.UUID         `json:"user_id"`
	Projects []*models.Project `json:"projects"`
	Message  string            `json:"message"`
}

// TestSetup seeds demo data and reports the caller's projects. It exists to
// check a fresh account end to end.
func (s *Service) TestSetup(ctx context.Context, id *auth.Identity) (*TestSetupResult, error) {
	if err := s.SetupDemoData(ctx, id); err != nil {
		return nil, err
	}

	projects, err := s.backend.Projects.GetUserProjects(ctx, id.UserID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error fetching projects")
		return nil, &PersistenceError{Message: MsgFetchProjectsFailed, Err: err}
	}

	if projects == nil {
		projects = []*models.Project{}
	}

	return &TestSetupResult{
		Success:  true,
		UserID:   id.UserID,
		Projects: projects,
		Message:  "Demo data setup completed and projects fetched successfully",
	}, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
