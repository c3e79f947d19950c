package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SourceKind is the type of vision-model output a source carries.
type SourceKind string

const (
	SourceKindTracks     SourceKind = "tracks"
	SourceKindPoses      SourceKind = "poses"
	SourceKindDetections SourceKind = "detections"
	SourceKindCaptions   SourceKind = "captions"
)

// SourceKinds lists every accepted source kind in display order.
var SourceKinds = []SourceKind{
	SourceKindTracks,
	SourceKindPoses,
	SourceKindDetections,
	SourceKindCaptions,
}

// Valid reports whether k is one of the fixed source kinds.
func (k SourceKind) Valid() bool {
	return slices.Contains(SourceKinds, k)
}

// SourceStatus is the lifecycle status of a source.
type SourceStatus string

const (
	SourceStatusActive   SourceStatus = "active"
	SourceStatusArchived SourceStatus = "archived"
	SourceStatusError    SourceStatus = "error"
)

// Valid reports whether s is a known source status.
func (s SourceStatus) Valid() bool {
	switch s {
	case SourceStatusActive, SourceStatusArchived, SourceStatusError:
		return true
	}
	return false
}

// Source is a registered stream of vision-model output data.
type Source struct {
	ID            uuid.UUID      `json:"id"`
	ProjectID     uuid.UUID      `json:"project_id"`
	Name          string         `json:"name"`
	Kind          SourceKind     `json:"kind"`
	SchemaVersion string         `json:"schema_version"`
	Status        SourceStatus   `json:"status"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SourceRef is the source summary embedded in job list results.
type SourceRef struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Kind          SourceKind `json:"kind"`
	SchemaVersion string     `json:"schema_version"`
}

// Ref returns the summary form of the source.
func (s *Source) Ref() SourceRef {
	return SourceRef{ID: s.ID, Name: s.Name, Kind: s.Kind, SchemaVersion: s.SchemaVersion}
}

// SourceListItem is a source joined with its project and organization.
type SourceListItem struct {
	Source
	Project ProjectRef `json:"project"`
}
