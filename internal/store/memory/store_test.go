package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/store"
	"github.com/stretchr/testify/require"
)

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// seedProject creates an organization owned by ownerID with a single project.
func seedProject(t *testing.T, st *Store, ownerID uuid.UUID, name string, created time.Time) *models.Project {
	t.Helper()
	ctx := context.Background()

	org := &models.Organization{ID: newID(), Name: name + " org", OwnerID: ownerID, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, st.CreateOrganization(ctx, org))

	project := &models.Project{ID: newID(), Name: name, OrgID: org.ID, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, st.CreateProject(ctx, project))

	return project
}

func newSource(projectID uuid.UUID, name string, created time.Time) *models.Source {
	return &models.Source{
		ID:            newID(),
		ProjectID:     projectID,
		Name:          name,
		Kind:          models.SourceKindTracks,
		SchemaVersion: "1.0",
		Status:        models.SourceStatusActive,
		Metadata:      map[string]any{},
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestOrganizationStore(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	ownerID := newID()

	org := &models.Organization{ID: newID(), Name: "Acme", OwnerID: ownerID, CreatedAt: time.Now()}
	require.NoError(t, st.CreateOrganization(ctx, org))
	require.ErrorIs(t, st.CreateOrganization(ctx, org), store.ErrOrganizationAlreadyExists)

	err := st.CreateProject(ctx, &models.Project{ID: newID(), OrgID: newID(), Name: "orphan"})
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)

	project := &models.Project{ID: newID(), OrgID: org.ID, Name: "Main", CreatedAt: time.Now()}
	require.NoError(t, st.CreateProject(ctx, project))

	// returned values are copies
	projects, err := st.GetUserProjects(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	projects[0].Name = "changed"
	projects, err = st.GetUserProjects(ctx, ownerID)
	require.NoError(t, err)
	require.Equal(t, "Main", projects[0].Name)
}

func TestGetUserProjects(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	ownerID := newID()
	base := time.Now()

	second := seedProject(t, st, ownerID, "second", base.Add(time.Minute))
	first := seedProject(t, st, ownerID, "first", base)
	seedProject(t, st, newID(), "someone else", base.Add(-time.Hour))

	projects, err := st.GetUserProjects(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, first.ID, projects[0].ID)
	require.Equal(t, second.ID, projects[1].ID)

	projects, err = st.GetUserProjects(ctx, newID())
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestSourceStore(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	ownerID := newID()
	base := time.Now()
	project := seedProject(t, st, ownerID, "cams", base)

	t.Run("create requires project", func(t *testing.T) {
		_, err := st.CreateSource(ctx, newSource(newID(), "lost", base))
		require.ErrorIs(t, err, store.ErrProjectNotFound)
	})

	t.Run("list newest first with project join", func(t *testing.T) {
		older, err := st.CreateSource(ctx, newSource(project.ID, "older", base))
		require.NoError(t, err)
		newer, err := st.CreateSource(ctx, newSource(project.ID, "newer", base.Add(time.Second)))
		require.NoError(t, err)

		other := seedProject(t, st, newID(), "other", base)
		_, err = st.CreateSource(ctx, newSource(other.ID, "hidden", base.Add(time.Hour)))
		require.NoError(t, err)

		items, err := st.ListUserSources(ctx, ownerID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, newer.ID, items[0].ID)
		require.Equal(t, older.ID, items[1].ID)
		require.Equal(t, project.ID, items[0].Project.ID)
		require.Equal(t, ownerID, items[0].Project.Organization.OwnerID)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		items, err := st.ListUserSources(ctx, newID())
		require.NoError(t, err)
		require.NotNil(t, items)
		require.Empty(t, items)
	})

	t.Run("metadata is copied", func(t *testing.T) {
		src := newSource(project.ID, "meta", base)
		src.Metadata = map[string]any{"fps": 30}
		created, err := st.CreateSource(ctx, src)
		require.NoError(t, err)

		src.Metadata["fps"] = 60
		require.Equal(t, 30, created.Metadata["fps"])
	})
}

func TestJobStore(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	ownerID := newID()
	base := time.Now()
	project := seedProject(t, st, ownerID, "cams", base)

	source, err := st.CreateSource(ctx, newSource(project.ID, "Cam 1", base))
	require.NoError(t, err)

	newJob := func(sourceID uuid.UUID, created time.Time) *models.Job {
		return &models.Job{
			ID:        newID(),
			ProjectID: project.ID,
			SourceID:  sourceID,
			JobType:   models.JobTypeNormalize,
			Status:    models.JobStatusQueued,
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	_, err = st.CreateJob(ctx, newJob(newID(), base))
	require.ErrorIs(t, err, store.ErrSourceNotFound)

	// a source under another owner's organization is treated as missing
	foreign := seedProject(t, st, newID(), "foreign", base)
	foreignSource, err := st.CreateSource(ctx, newSource(foreign.ID, "theirs", base))
	require.NoError(t, err)
	_, err = st.CreateJob(ctx, newJob(foreignSource.ID, base))
	require.ErrorIs(t, err, store.ErrSourceNotFound)

	// a second organization owned by the same user is fine
	sibling := seedProject(t, st, ownerID, "sibling", base)
	siblingSource, err := st.CreateSource(ctx, newSource(sibling.ID, "mine too", base))
	require.NoError(t, err)
	sideJob, err := st.CreateJob(ctx, newJob(siblingSource.ID, base.Add(-time.Hour)))
	require.NoError(t, err)

	first, err := st.CreateJob(ctx, newJob(source.ID, base))
	require.NoError(t, err)
	require.NotNil(t, first.Config)

	second, err := st.CreateJob(ctx, newJob(source.ID, base.Add(time.Second)))
	require.NoError(t, err)

	items, err := st.GetUserJobs(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, second.ID, items[0].ID)
	require.Equal(t, first.ID, items[1].ID)
	require.Equal(t, sideJob.ID, items[2].ID)
	require.Equal(t, "Cam 1", items[0].Source.Name)
	require.Equal(t, project.Name, items[0].Project.Name)

	items, err = st.GetUserJobs(ctx, newID())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestEnsureDemoDataForUser(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	userID := newID()

	require.NoError(t, st.EnsureDemoDataForUser(ctx, userID))

	projects, err := st.GetUserProjects(ctx, userID)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	sources, err := st.ListUserSources(ctx, userID)
	require.NoError(t, err)
	jobs, err := st.GetUserJobs(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, sources)
	require.NotEmpty(t, jobs)

	// second call is a no-op
	require.NoError(t, st.EnsureDemoDataForUser(ctx, userID))

	projects2, err := st.GetUserProjects(ctx, userID)
	require.NoError(t, err)
	sources2, err := st.ListUserSources(ctx, userID)
	require.NoError(t, err)
	jobs2, err := st.GetUserJobs(ctx, userID)
	require.NoError(t, err)
	require.Len(t, projects2, len(projects))
	require.Len(t, sources2, len(sources))
	require.Len(t, jobs2, len(jobs))

	// other users are unaffected
	others, err := st.ListUserSources(ctx, newID())
	require.NoError(t, err)
	require.Empty(t, others)
}

func TestEnsureDemoDataSkipsExistingOwner(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	userID := newID()
	seedProject(t, st, userID, "mine", time.Now())

	require.NoError(t, st.EnsureDemoDataForUser(ctx, userID))

	sources, err := st.ListUserSources(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, sources)
}
