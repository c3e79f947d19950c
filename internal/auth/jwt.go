package auth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AccessTokenCookie is the cookie browsers carry the backend session token in.
const AccessTokenCookie = "sb-access-token"

var (
	// ErrMissingToken is returned when a request carries no credential.
	ErrMissingToken = errors.New("missing access token")

	// ErrInvalidToken is returned when a credential fails verification.
	ErrInvalidToken = errors.New("invalid access token")
)

// Claims are the JWT claims issued by the backend.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// KeyResolver resolves ES256 verification keys by kid.
type KeyResolver interface {
	GetKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error)
}

// VerifierConfig configures a JWTVerifier. At least one of Secret or Keys must be set.
type VerifierConfig struct {
	// Secret verifies HS256 tokens.
	Secret []byte

	// Keys resolves ES256 keys, usually a *JWKSKeyCache.
	Keys KeyResolver

	// Issuer, when set, must match the iss claim.
	Issuer string
}

// JWTVerifier authenticates requests by verifying backend-issued JWTs.
type JWTVerifier struct {
	secret  []byte
	keys    KeyResolver
	methods []string
	issuer  string
}

// NewJWTVerifier creates a new JWT verifier.
func NewJWTVerifier(cfg VerifierConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{
		secret: cfg.Secret,
		keys:   cfg.Keys,
		issuer: cfg.Issuer,
	}

	if len(cfg.Secret) > 0 {
		v.methods = append(v.methods, jwt.SigningMethodHS256.Alg())
	}
	if cfg.Keys != nil {
		v.methods = append(v.methods, jwt.SigningMethodES256.Alg())
	}
	if len(v.methods) == 0 {
		return nil, errors.New("JWT secret or JWKS URL not provided")
	}

	return v, nil
}

// Authenticate resolves the caller's identity from the Authorization header,
// falling back to the access token cookie.
func (v *JWTVerifier) Authenticate(r *http.Request) (*Identity, error) {
	tokenString := extractToken(r)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	return v.Verify(r.Context(), tokenString)
}

// Verify checks the signature and registered claims of tokenString and returns
// the identity it names.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			return v.secret, nil
		case *jwt.SigningMethodECDSA:
			kid, ok := t.Header["kid"].(string)
			if !ok || kid == "" {
				return nil, errors.New("missing kid")
			}
			return v.keys.GetKey(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
	}, opts...)
	if err != nil {
		log.Debug().Err(err).Msg("JWT parse error")
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sub UUID: %w", ErrInvalidToken, err)
	}

	return &Identity{
		UserID: userID,
		Email:  claims.Email,
	}, nil
}

// extractToken returns the bearer token, or the access token cookie when the
// Authorization header is absent.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return ""
		}
		return parts[1]
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}
