package ingest

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/internal/models"
)

// CreateSourceRequest is the body of a create source call.
type CreateSourceRequest struct {
	Name          string         `json:"name"`
	Kind          string         `json:"kind"`
	SchemaVersion string         `json:"schema_version"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// CreateJobRequest is the body of a create job call.
type CreateJobRequest struct {
	SourceID  string         `json:"source_id"`
	JobType   string         `json:"job_type"`
	InputPath *string        `json:"input_path,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

// ValidatedSource is a create source request that passed validation.
type ValidatedSource struct {
	Name          string
	Kind          models.SourceKind
	SchemaVersion string
	Metadata      map[string]any
}

// ValidatedJob is a create job request that passed validation.
type ValidatedJob struct {
	SourceID  uuid.UUID
	JobType   models.JobType
	InputPath *string
	Config    map[string]any
}

// ParseCreateSource decodes and validates a create source body.
// Required fields are checked before the kind enum.
func ParseCreateSource(body []byte) (*ValidatedSource, error) {
	var req CreateSourceRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	return ValidateCreateSource(&req)
}

// ValidateCreateSource checks required fields and the kind enum.
func ValidateCreateSource(req *CreateSourceRequest) (*ValidatedSource, error) {
	if err := requireFields(
		field{"name", req.Name},
		field{"kind", req.Kind},
		field{"schema_version", req.SchemaVersion},
	); err != nil {
		return nil, err
	}

	kind := models.SourceKind(req.Kind)
	if !kind.Valid() {
		return nil, validationErrorf("Invalid source kind: " + req.Kind)
	}

	return &ValidatedSource{
		Name:          req.Name,
		Kind:          kind,
		SchemaVersion: req.SchemaVersion,
		Metadata:      req.Metadata,
	}, nil
}

// ParseCreateJob decodes and validates a create job body.
func ParseCreateJob(body []byte) (*ValidatedJob, error) {
	var req CreateJobRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	return ValidateCreateJob(&req)
}

// ValidateCreateJob checks required fields, the job type enum and the source id format.
func ValidateCreateJob(req *CreateJobRequest) (*ValidatedJob, error) {
	if err := requireFields(
		field{"source_id", req.SourceID},
		field{"job_type", req.JobType},
	); err != nil {
		return nil, err
	}

	jobType := models.JobType(req.JobType)
	if !jobType.Valid() {
		return nil, validationErrorf("Invalid job type: " + req.JobType)
	}

	sourceID, err := uuid.Parse(req.SourceID)
	if err != nil {
		return nil, validationErrorf("Invalid source_id: " + req.SourceID)
	}

	inputPath := req.InputPath
	if inputPath != nil && *inputPath == "" {
		inputPath = nil
	}

	return &ValidatedJob{
		SourceID:  sourceID,
		JobType:   jobType,
		InputPath: inputPath,
		Config:    req.Config,
	}, nil
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return validationErrorf("Missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

func decodeBody(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return validationErrorf("Invalid request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return validationErrorf("Invalid request body")
	}
	return nil
}
