package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// JobType names the processing run a job performs. Execution happens outside this service.
type JobType string

const (
	JobTypeNormalize       JobType = "normalize"
	JobTypeExtractFeatures JobType = "extract_features"
	JobTypeScoreEvents     JobType = "score_events"
	JobTypeGenerateDataset JobType = "generate_dataset"
)

// JobTypes lists every accepted job type.
var JobTypes = []JobType{
	JobTypeNormalize,
	JobTypeExtractFeatures,
	JobTypeScoreEvents,
	JobTypeGenerateDataset,
}

// Valid reports whether t is one of the fixed job types.
func (t JobType) Valid() bool {
	return slices.Contains(JobTypes, t)
}

// JobStatus is driven by the external executor; this service only creates jobs as queued.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Terminal returns true once the executor has finished with the job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one asynchronous processing run against a source.
type Job struct {
	ID           uuid.UUID      `json:"id"`
	ProjectID    uuid.UUID      `json:"project_id"`
	SourceID     uuid.UUID      `json:"source_id"`
	JobType      JobType        `json:"job_type"`
	Status       JobStatus      `json:"status"`
	InputPath    *string        `json:"input_path"`
	OutputPath   *string        `json:"output_path"`
	Config       map[string]any `json:"config"`
	ErrorMessage *string        `json:"error_message"`
	StartedAt    *time.Time     `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// JobListItem is a job joined with its source and project.
type JobListItem struct {
	Job
	Source  SourceRef  `json:"source"`
	Project ProjectRef `json:"project"`
}
