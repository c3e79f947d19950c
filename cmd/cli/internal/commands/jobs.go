package commands

import (
	"context"
	"fmt"

	"github.com/secondary-inference/console/internal/console"
	"github.com/secondary-inference/console/internal/ingest"
)

// JobsCmd groups job subcommands.
type JobsCmd struct {
	List   JobsListCmd   `cmd:"" help:"List jobs, newest first"`
	Create JobsCreateCmd `cmd:"" help:"Enqueue a job against a source"`
}

type JobsListCmd struct{}

func (j *JobsListCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.newClient()
	if err != nil {
		return err
	}

	jobs, err := c.ListJobs(ctx)
	if err != nil {
		return err
	}

	return console.WriteJobs(globals.stdout(), jobs)
}

type JobsCreateCmd struct {
	SourceID  string            `help:"Source ID the job reads from" required:""`
	JobType   string            `help:"Job type (normalize, extract_features, score_events, generate_dataset)" required:""`
	InputPath string            `help:"Optional input path"`
	Config    map[string]string `help:"Job configuration entries (key=value)"`
}

func (j *JobsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.newClient()
	if err != nil {
		return err
	}

	req := &ingest.CreateJobRequest{
		SourceID: j.SourceID,
		JobType:  j.JobType,
	}
	if j.InputPath != "" {
		req.InputPath = &j.InputPath
	}
	if len(j.Config) > 0 {
		req.Config = make(map[string]any, len(j.Config))
		for k, v := range j.Config {
			req.Config[k] = v
		}
	}

	job, err := c.CreateJob(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	fmt.Fprintf(globals.stdout(), "Created job %s (%s, %s)\n", job.ID, job.JobType, job.Status)
	return nil
}
