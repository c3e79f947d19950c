package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is the unverified claim summary of an access token. The server
// does the verification; the CLI only reads claims to label saved credentials.
type TokenInfo struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// InspectToken parses tokenString without checking its signature.
func InspectToken(tokenString string) (*TokenInfo, error) {
	c := &claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, c); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	info := &TokenInfo{Subject: c.Subject, Email: c.Email}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.UTC()
	}
	return info, nil
}

// FromToken builds a credential named name from tokenString.
func FromToken(name, serverURL, tokenString string) (Credential, error) {
	info, err := InspectToken(tokenString)
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		Name:      name,
		ServerURL: serverURL,
		Token:     tokenString,
		Subject:   info.Subject,
		Email:     info.Email,
		ExpiresAt: info.ExpiresAt,
	}, nil
}
