// Package demo holds the fixture used to seed sample data for a new identity.
package demo

import (
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var fixtureYAML []byte

// Fixture is the parsed form of demo.yaml.
type Fixture struct {
	Organization string           `yaml:"organization"`
	Projects     []ProjectFixture `yaml:"projects"`
}

type ProjectFixture struct {
	Name    string          `yaml:"name"`
	Sources []SourceFixture `yaml:"sources"`
	Jobs    []JobFixture    `yaml:"jobs"`
}

type SourceFixture struct {
	Name          string         `yaml:"name"`
	Kind          string         `yaml:"kind"`
	SchemaVersion string         `yaml:"schema_version"`
	Status        string         `yaml:"status"`
	Metadata      map[string]any `yaml:"metadata"`
}

type JobFixture struct {
	Source       string         `yaml:"source"` // name of a source in the same project
	JobType      string         `yaml:"job_type"`
	Status       string         `yaml:"status"`
	InputPath    string         `yaml:"input_path"`
	OutputPath   string         `yaml:"output_path"`
	ErrorMessage string         `yaml:"error_message"`
	Config       map[string]any `yaml:"config"`
	StartedAgo   time.Duration  `yaml:"started_ago"`
	CompletedAgo time.Duration  `yaml:"completed_ago"`
}

// Dataset is a fixture expanded into concrete rows for one owner.
type Dataset struct {
	Organization *models.Organization
	Projects     []*models.Project
	Sources      []*models.Source
	Jobs         []*models.Job
}

var (
	once    sync.Once
	fixture *Fixture
	loadErr error
)

// Load parses the embedded fixture. The result is cached.
func Load() (*Fixture, error) {
	once.Do(func() {
		fixture, loadErr = Parse(fixtureYAML)
	})
	return fixture, loadErr
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse demo fixture: %w", err)
	}
	if f.Organization == "" {
		return nil, fmt.Errorf("demo fixture: organization name is required")
	}
	return &f, nil
}

// queueDelay is how long a seeded job waits between creation and start.
const queueDelay = time.Minute

// Build expands the fixture into rows owned by ownerID.
// Setup rows are stamped one second apart, in fixture order, ending before
// the earliest job started. Started jobs are created queueDelay before they
// start; jobs that never started are created just before now, in fixture order.
func (f *Fixture) Build(ownerID uuid.UUID, now time.Time) (*Dataset, error) {
	rows := 1 + len(f.Projects)
	var earliest time.Duration
	for _, p := range f.Projects {
		rows += len(p.Sources)
		for _, jf := range p.Jobs {
			earliest = max(earliest, jf.StartedAgo, jf.CompletedAgo)
		}
	}
	stamp := now.Add(-earliest - queueDelay - time.Duration(rows+1)*time.Second)
	next := func() time.Time {
		stamp = stamp.Add(time.Second)
		return stamp
	}

	created := next()
	ds := &Dataset{
		Organization: &models.Organization{
			ID:        uuid.Must(uuid.NewV7()),
			Name:      f.Organization,
			OwnerID:   ownerID,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	for _, pf := range f.Projects {
		created := next()
		project := &models.Project{
			ID:        uuid.Must(uuid.NewV7()),
			Name:      pf.Name,
			OrgID:     ds.Organization.ID,
			CreatedAt: created,
			UpdatedAt: created,
		}
		ds.Projects = append(ds.Projects, project)

		byName := make(map[string]*models.Source, len(pf.Sources))
		for _, sf := range pf.Sources {
			kind := models.SourceKind(sf.Kind)
			if !kind.Valid() {
				return nil, fmt.Errorf("demo source %q: invalid kind %q", sf.Name, sf.Kind)
			}
			status := models.SourceStatus(sf.Status)
			if status == "" {
				status = models.SourceStatusActive
			}
			if !status.Valid() {
				return nil, fmt.Errorf("demo source %q: invalid status %q", sf.Name, sf.Status)
			}
			metadata := sf.Metadata
			if metadata == nil {
				metadata = map[string]any{}
			}

			created := next()
			source := &models.Source{
				ID:            uuid.Must(uuid.NewV7()),
				ProjectID:     project.ID,
				Name:          sf.Name,
				Kind:          kind,
				SchemaVersion: sf.SchemaVersion,
				Status:        status,
				Metadata:      metadata,
				CreatedAt:     created,
				UpdatedAt:     created,
			}
			byName[sf.Name] = source
			ds.Sources = append(ds.Sources, source)
		}

		for i, jf := range pf.Jobs {
			source, ok := byName[jf.Source]
			if !ok {
				return nil, fmt.Errorf("demo job %d in project %q: unknown source %q", i, pf.Name, jf.Source)
			}
			jobType := models.JobType(jf.JobType)
			if !jobType.Valid() {
				return nil, fmt.Errorf("demo job %d in project %q: invalid job type %q", i, pf.Name, jf.JobType)
			}
			status := models.JobStatus(jf.Status)
			if status == "" {
				status = models.JobStatusQueued
			}
			if !status.Valid() {
				return nil, fmt.Errorf("demo job %d in project %q: invalid status %q", i, pf.Name, jf.Status)
			}
			config := jf.Config
			if config == nil {
				config = map[string]any{}
			}

			if jf.CompletedAgo > jf.StartedAgo {
				return nil, fmt.Errorf("demo job %d in project %q: completes before it starts", i, pf.Name)
			}

			created := now.Add(-time.Duration(len(pf.Jobs)-i) * time.Second)
			var startedAt, completedAt *time.Time
			if jf.StartedAgo > 0 {
				started := now.Add(-jf.StartedAgo)
				startedAt = &started
				created = started.Add(-queueDelay)
			}
			updated := created
			if startedAt != nil {
				updated = *startedAt
			}
			if jf.CompletedAgo > 0 {
				completed := now.Add(-jf.CompletedAgo)
				completedAt = &completed
				updated = completed
			}

			job := &models.Job{
				ID:           uuid.Must(uuid.NewV7()),
				ProjectID:    project.ID,
				SourceID:     source.ID,
				JobType:      jobType,
				Status:       status,
				InputPath:    optional(jf.InputPath),
				OutputPath:   optional(jf.OutputPath),
				Config:       config,
				ErrorMessage: optional(jf.ErrorMessage),
				StartedAt:    startedAt,
				CompletedAt:  completedAt,
				CreatedAt:    created,
				UpdatedAt:    updated,
			}
			ds.Jobs = append(ds.Jobs, job)
		}
	}

	return ds, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
