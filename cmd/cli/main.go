package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/secondary-inference/console/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Sources     commands.SourcesCmd     `cmd:"" help:"List or create sources"`
		Jobs        commands.JobsCmd        `cmd:"" help:"List or create jobs"`
		Demo        commands.DemoCmd        `cmd:"" help:"Seed demo data"`
		Login       commands.LoginCmd       `cmd:"" help:"Save an access token as a named credential"`
		Credentials commands.CredentialsCmd `cmd:"" help:"Manage saved credentials"`
		Token       commands.TokenCmd       `cmd:"" help:"Generate a development JWT token"`

		Server         string `help:"Console server URL (defaults to the credential's server, then http://localhost:8080)" env:"CONSOLE_SERVER"`
		AccessToken    string `name:"token" help:"Access token, overrides saved credentials" env:"CONSOLE_TOKEN"`
		Credential     string `help:"Saved credential to use instead of the default" env:"CONSOLE_CREDENTIAL"`
		CredentialsDir string `help:"Custom credentials directory" env:"CONSOLE_CREDENTIALS_DIR"`
		Debug          bool   `help:"Enable debug mode."`
		Version        kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("console"),
		kong.Description("Secondary Inference console CLI"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:          cli.Debug,
		Version:        version,
		Server:         cli.Server,
		Token:          cli.AccessToken,
		Credential:     cli.Credential,
		CredentialsDir: cli.CredentialsDir,
	})
	cmd.FatalIfErrorf(err)
}
