package ingest

import (
	"testing"

	"github.com/secondary-inference/console/internal/models"
	"github.com/stretchr/testify/require"
)

func TestParseCreateSource(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "minimal", body: `{"name":"Cam 1","kind":"tracks","schema_version":"1.0"}`},
		{name: "with metadata", body: `{"name":"Cam 1","kind":"poses","schema_version":"1.0","metadata":{"fps":30}}`},
		{name: "all missing", body: `{}`, wantErr: "Missing required fields: name, kind, schema_version"},
		{name: "empty name", body: `{"name":"","kind":"tracks","schema_version":"1.0"}`, wantErr: "Missing required fields: name"},
		{name: "missing schema version", body: `{"name":"Cam 1","kind":"tracks"}`, wantErr: "Missing required fields: schema_version"},
		{name: "unknown kind", body: `{"name":"Cam 1","kind":"audio","schema_version":"1.0"}`, wantErr: "Invalid source kind: audio"},
		{name: "missing fields win over bad kind", body: `{"kind":"audio"}`, wantErr: "Missing required fields: name, schema_version"},
		{name: "kind is case sensitive", body: `{"name":"Cam 1","kind":"Tracks","schema_version":"1.0"}`, wantErr: "Invalid source kind: Tracks"},
		{name: "not json", body: `name=Cam`, wantErr: "Invalid request body"},
		{name: "empty body", body: ``, wantErr: "Invalid request body"},
		{name: "metadata not an object", body: `{"name":"Cam 1","kind":"tracks","schema_version":"1.0","metadata":"x"}`, wantErr: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreateSource([]byte(tt.body))
			if tt.wantErr != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				require.Equal(t, tt.wantErr, verr.Message)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Cam 1", got.Name)
		})
	}
}

func TestParseCreateSource_AllKinds(t *testing.T) {
	for _, kind := range models.SourceKinds {
		t.Run(string(kind), func(t *testing.T) {
			got, err := ValidateCreateSource(&CreateSourceRequest{Name: "s", Kind: string(kind), SchemaVersion: "1.0"})
			require.NoError(t, err)
			require.Equal(t, kind, got.Kind)
		})
	}
}

func TestParseCreateJob(t *testing.T) {
	sourceID := "0190a5c4-7d2e-7c3a-9b1f-2a3b4c5d6e7f"

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "minimal", body: `{"source_id":"` + sourceID + `","job_type":"normalize"}`},
		{name: "with input and config", body: `{"source_id":"` + sourceID + `","job_type":"score_events","input_path":"s3://bucket/in","config":{"threshold":0.5}}`},
		{name: "all missing", body: `{}`, wantErr: "Missing required fields: source_id, job_type"},
		{name: "missing job type", body: `{"source_id":"` + sourceID + `"}`, wantErr: "Missing required fields: job_type"},
		{name: "unknown job type", body: `{"source_id":"` + sourceID + `","job_type":"train"}`, wantErr: "Invalid job type: train"},
		{name: "source id not a uuid", body: `{"source_id":"abc","job_type":"normalize"}`, wantErr: "Invalid source_id: abc"},
		{name: "not json", body: `[`, wantErr: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreateJob([]byte(tt.body))
			if tt.wantErr != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				require.Equal(t, tt.wantErr, verr.Message)
				return
			}
			require.NoError(t, err)
			require.Equal(t, sourceID, got.SourceID.String())
		})
	}
}

func TestParseCreateJob_InputPath(t *testing.T) {
	sourceID := "0190a5c4-7d2e-7c3a-9b1f-2a3b4c5d6e7f"

	tests := []struct {
		name string
		body string
		want *string
	}{
		{name: "absent", body: `{"source_id":"` + sourceID + `","job_type":"normalize"}`},
		{name: "null", body: `{"source_id":"` + sourceID + `","job_type":"normalize","input_path":null}`},
		{name: "empty string", body: `{"source_id":"` + sourceID + `","job_type":"normalize","input_path":""}`},
		{name: "set", body: `{"source_id":"` + sourceID + `","job_type":"normalize","input_path":"s3://bucket/in"}`, want: ptr("s3://bucket/in")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreateJob([]byte(tt.body))
			require.NoError(t, err)
			require.Equal(t, tt.want, got.InputPath)
		})
	}
}

func ptr(s string) *string { return &s }

func TestPersistenceError(t *testing.T) {
	cause := errTest("connection refused")
	err := &PersistenceError{Message: MsgCreateJobFailed, Err: cause}

	require.Equal(t, "Failed to create job: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
	require.Equal(t, "Failed to create job", (&PersistenceError{Message: MsgCreateJobFailed}).Error())
}

type errTest string

func (e errTest) Error() string { return string(e) }
