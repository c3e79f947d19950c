package commands

import (
	"context"
	"fmt"
)

// DemoCmd groups demo data subcommands.
type DemoCmd struct {
	Setup DemoSetupCmd `cmd:"" help:"Seed demo organization, project, sources and jobs"`
	Check DemoCheckCmd `cmd:"" help:"Seed demo data and report the projects visible to you"`
}

type DemoSetupCmd struct{}

func (d *DemoSetupCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.newClient()
	if err != nil {
		return err
	}

	if err := c.SetupDemoData(ctx); err != nil {
		return fmt.Errorf("failed to setup demo data: %w", err)
	}

	fmt.Fprintln(globals.stdout(), "Demo data is ready.")
	return nil
}

type DemoCheckCmd struct{}

func (d *DemoCheckCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.newClient()
	if err != nil {
		return err
	}

	result, err := c.TestSetup(ctx)
	if err != nil {
		return err
	}

	out := globals.stdout()
	fmt.Fprintln(out, result.Message)
	fmt.Fprintf(out, "User: %s\n", result.UserID)
	for _, project := range result.Projects {
		fmt.Fprintf(out, "  %s  %s\n", project.ID, project.Name)
	}
	return nil
}
