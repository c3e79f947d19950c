package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/secondary-inference/console/cmd/cli/internal/credentials"
	"github.com/secondary-inference/console/internal/client"
	"github.com/secondary-inference/console/internal/logger"
)

type Globals struct {
	Debug          bool
	Version        string
	Server         string
	Token          string
	Credential     string
	CredentialsDir string

	// Out receives command output. Nil means stdout.
	Out io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

func (g *Globals) credentialStore() (*credentials.Store, error) {
	store, err := credentials.NewStore(g.CredentialsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}
	return store, nil
}

// newClient builds an API client. An explicit token wins over saved
// credentials; a missing credential leaves the client anonymous so the
// server's 401 is reported to the user.
func (g *Globals) newClient() (*client.Client, error) {
	logger.Setup(g.Debug, "console-cli")

	cfg := client.DefaultConfig()
	cfg.Debug = g.Debug
	cfg.Timeout = 30 * time.Second

	cred, err := g.savedCredential()
	if err != nil {
		return nil, err
	}
	if cred != nil {
		if cred.Expired(time.Now()) {
			log.Warn().Str("credential", cred.Name).Time("expires_at", cred.ExpiresAt).Msg("saved token has expired")
		}
		cfg.Token = cred.Token
		if cred.ServerURL != "" {
			cfg.ServerURL = cred.ServerURL
		}
	}

	if g.Token != "" {
		cfg.Token = g.Token
	}
	if g.Server != "" {
		cfg.ServerURL = g.Server
	}

	return client.New(cfg), nil
}

func (g *Globals) savedCredential() (*credentials.Credential, error) {
	if g.Token != "" && g.Credential == "" {
		return nil, nil
	}

	store, err := g.credentialStore()
	if err != nil {
		return nil, err
	}

	if g.Credential != "" {
		cred, err := store.Get(g.Credential)
		if err != nil {
			return nil, fmt.Errorf("failed to load credential %q: %w", g.Credential, err)
		}
		return cred, nil
	}

	cred, err := store.GetDefault()
	if errors.Is(err, credentials.ErrNoDefaultCredential) || errors.Is(err, credentials.ErrCredentialNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load default credential: %w", err)
	}
	return cred, nil
}
