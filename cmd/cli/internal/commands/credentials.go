package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/secondary-inference/console/cmd/cli/internal/credentials"
)

// CredentialsCmd manages local credentials.
type CredentialsCmd struct {
	List       CredentialsListCmd       `cmd:"" help:"List all credentials"`
	Show       CredentialsShowCmd       `cmd:"" help:"Show credential details"`
	Delete     CredentialsDeleteCmd     `cmd:"" help:"Delete a credential"`
	SetDefault CredentialsSetDefaultCmd `cmd:"" name:"set-default" help:"Set the default credential"`
}

// LoginCmd saves the --token access token under a name.
type LoginCmd struct {
	Name string `arg:"" optional:"" default:"default" help:"Credential name"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	if globals.Token == "" {
		return errors.New("an access token is required (--token or CONSOLE_TOKEN)")
	}

	store, err := globals.credentialStore()
	if err != nil {
		return err
	}

	cred, err := credentials.FromToken(l.Name, globals.Server, globals.Token)
	if err != nil {
		return err
	}
	if cred.Expired(time.Now()) {
		return fmt.Errorf("token for %s expired at %s", cred.Subject, cred.ExpiresAt.Format(time.RFC3339))
	}

	saved, err := store.Save(cred)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	fmt.Fprintf(globals.stdout(), "Credential %q saved for %s.\n", saved.Name, saved.Subject)
	return nil
}

// CredentialsListCmd lists all credentials.
type CredentialsListCmd struct{}

func (c *CredentialsListCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.credentialStore()
	if err != nil {
		return err
	}

	creds, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	out := globals.stdout()
	if len(creds) == 0 {
		fmt.Fprintln(out, "No credentials found.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To save a token:")
		fmt.Fprintln(out, "  console login <name> --token <token>")
		return nil
	}

	// Get default credential
	defaultCred, _ := store.GetDefault()
	defaultName := ""
	if defaultCred != nil {
		defaultName = defaultCred.Name
	}

	// Print as table
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSUBJECT\tSERVER\tEXPIRES\tDEFAULT")

	now := time.Now()
	for _, cred := range creds {
		expires := "never"
		if !cred.ExpiresAt.IsZero() {
			expires = cred.ExpiresAt.Local().Format("2006-01-02 15:04")
			if cred.Expired(now) {
				expires += " (expired)"
			}
		}

		isDefault := ""
		if cred.Name == defaultName {
			isDefault = "*"
		}

		server := cred.ServerURL
		if server == "" {
			server = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", cred.Name, cred.Subject, server, expires, isDefault)
	}

	return w.Flush()
}

// CredentialsShowCmd shows details of a credential.
type CredentialsShowCmd struct {
	Name string `arg:"" help:"Credential name"`
}

func (c *CredentialsShowCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.credentialStore()
	if err != nil {
		return err
	}

	cred, err := store.Get(c.Name)
	if err != nil {
		return notFound(c.Name, err)
	}

	out := globals.stdout()
	fmt.Fprintf(out, "Name:     %s\n", cred.Name)
	fmt.Fprintf(out, "Subject:  %s\n", cred.Subject)
	if cred.Email != "" {
		fmt.Fprintf(out, "Email:    %s\n", cred.Email)
	}
	if cred.ServerURL != "" {
		fmt.Fprintf(out, "Server:   %s\n", cred.ServerURL)
	}
	if !cred.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Expires:  %s\n", cred.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(out, "Created:  %s\n", cred.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Updated:  %s\n", cred.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

// CredentialsDeleteCmd deletes a credential.
type CredentialsDeleteCmd struct {
	Name string `arg:"" help:"Credential name"`
}

func (c *CredentialsDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.credentialStore()
	if err != nil {
		return err
	}

	if err := store.Delete(c.Name); err != nil {
		return notFound(c.Name, err)
	}

	fmt.Fprintf(globals.stdout(), "Credential %q deleted.\n", c.Name)
	return nil
}

// CredentialsSetDefaultCmd sets the default credential.
type CredentialsSetDefaultCmd struct {
	Name string `arg:"" help:"Credential name"`
}

func (c *CredentialsSetDefaultCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.credentialStore()
	if err != nil {
		return err
	}

	if err := store.SetDefault(c.Name); err != nil {
		return notFound(c.Name, err)
	}

	fmt.Fprintf(globals.stdout(), "Default credential set to %q.\n", c.Name)
	return nil
}

func notFound(name string, err error) error {
	if errors.Is(err, credentials.ErrCredentialNotFound) {
		return fmt.Errorf("credential %q not found\n\nRun 'console credentials list' to see available credentials", name)
	}
	return err
}
