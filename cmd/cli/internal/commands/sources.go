package commands

import (
	"context"
	"fmt"

	"github.com/secondary-inference/console/internal/console"
	"github.com/secondary-inference/console/internal/ingest"
)

// SourcesCmd groups source subcommands.
type SourcesCmd struct {
	List   SourcesListCmd   `cmd:"" help:"List sources, newest first"`
	Create SourcesCreateCmd `cmd:"" help:"Register a source in your first project"`
}

type SourcesListCmd struct{}

func (s *SourcesListCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.newClient()
	if err != nil {
		return err
	}

	sources, err := c.ListSources(ctx)
	if err != nil {
		return err
	}

	return console.WriteSources(globals.stdout(), sources)
}

type SourcesCreateCmd struct {
	Name          string            `help:"Source name" required:""`
	Kind          string            `help:"Source kind (tracks, poses, detections, captions)" required:""`
	SchemaVersion string            `help:"Schema version" default:"1.0"`
	Metadata      map[string]string `help:"Metadata entries (key=value)"`
}

func (s *SourcesCreateCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.newClient()
	if err != nil {
		return err
	}

	req := &ingest.CreateSourceRequest{
		Name:          s.Name,
		Kind:          s.Kind,
		SchemaVersion: s.SchemaVersion,
	}
	if len(s.Metadata) > 0 {
		req.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			req.Metadata[k] = v
		}
	}

	source, err := c.CreateSource(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	fmt.Fprintf(globals.stdout(), "Created source %s (%s, %s)\n", source.ID, source.Name, source.Status)
	return nil
}
