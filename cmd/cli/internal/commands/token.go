package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/secondary-inference/console/cmd/cli/internal/credentials"
	"github.com/secondary-inference/console/internal/auth"
)

// TokenCmd mints an HS256 token for local development against a server
// started with the same --jwt-secret.
type TokenCmd struct {
	Secret string        `help:"HMAC signing secret" required:"" env:"CONSOLE_JWT_SECRET"`
	UserID string        `help:"Subject user ID, a new one when empty"`
	Email  string        `help:"Email claim" default:""`
	Issuer string        `help:"Issuer claim" default:"" env:"CONSOLE_JWT_ISSUER"`
	TTL    time.Duration `help:"Token lifetime" default:"1h"`
	Save   string        `help:"Also save the token as a named credential"`
}

func (t *TokenCmd) Run(ctx context.Context, globals *Globals) error {
	userID, err := t.userID()
	if err != nil {
		return err
	}

	token, err := auth.IssueToken([]byte(t.Secret), t.Issuer, userID, t.Email, t.TTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	if t.Save != "" {
		store, err := globals.credentialStore()
		if err != nil {
			return err
		}
		cred, err := credentials.FromToken(t.Save, globals.Server, token)
		if err != nil {
			return err
		}
		if _, err := store.Save(cred); err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}
	}

	fmt.Fprintln(globals.stdout(), token)
	return nil
}

func (t *TokenCmd) userID() (uuid.UUID, error) {
	if t.UserID == "" {
		return uuid.NewV7()
	}
	id, err := uuid.Parse(t.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID %q: %w", t.UserID, err)
	}
	return id, nil
}
