package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-min-32-bytes-long")

func generateECKeyPair(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return privateKey
}

func createES256Token(t *testing.T, privateKey *ecdsa.PrivateKey, kid string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = kid
	tokenStr, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return tokenStr
}

func claimsFor(userID uuid.UUID, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		Email: "dev@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// jwksServer serves the public half of privateKey under kid and counts fetches.
func jwksServer(t *testing.T, privateKey *ecdsa.PrivateKey, kid string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	ecdhKey, err := privateKey.PublicKey.ECDH()
	require.NoError(t, err)
	point := ecdhKey.Bytes() // 0x04 || X || Y

	body, err := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "EC",
			"crv": "P-256",
			"kid": kid,
			"x":   base64.RawURLEncoding.EncodeToString(point[1:33]),
			"y":   base64.RawURLEncoding.EncodeToString(point[33:]),
		}},
	})
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func requestWithBearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func TestNewJWTVerifier(t *testing.T) {
	t.Run("no key material", func(t *testing.T) {
		v, err := NewJWTVerifier(VerifierConfig{})
		require.Error(t, err)
		require.Nil(t, v)
		require.Equal(t, "JWT secret or JWKS URL not provided", err.Error())
	})

	t.Run("secret only", func(t *testing.T) {
		v, err := NewJWTVerifier(VerifierConfig{Secret: testSecret})
		require.NoError(t, err)
		require.Equal(t, []string{"HS256"}, v.methods)
	})

	t.Run("secret and keys", func(t *testing.T) {
		v, err := NewJWTVerifier(VerifierConfig{Secret: testSecret, Keys: NewJWKSKeyCache("http://localhost/jwks", nil)})
		require.NoError(t, err)
		require.Equal(t, []string{"HS256", "ES256"}, v.methods)
	})
}

func TestJWTVerifier_HS256(t *testing.T) {
	v, err := NewJWTVerifier(VerifierConfig{Secret: testSecret, Issuer: "console-dev"})
	require.NoError(t, err)

	userID := uuid.Must(uuid.NewV7())

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueToken(testSecret, "console-dev", userID, "dev@example.com", time.Hour)
		require.NoError(t, err)

		id, err := v.Authenticate(requestWithBearer(token))
		require.NoError(t, err)
		require.Equal(t, userID, id.UserID)
		require.Equal(t, "dev@example.com", id.Email)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		token, err := IssueToken(testSecret, "console-dev", userID, "", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/console/sources", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

		id, err := v.Authenticate(req)
		require.NoError(t, err)
		require.Equal(t, userID, id.UserID)
		require.Empty(t, id.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
		id, err := v.Authenticate(req)
		require.ErrorIs(t, err, ErrMissingToken)
		require.Nil(t, id)
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		_, err := v.Authenticate(req)
		require.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := IssueToken(testSecret, "console-dev", userID, "", -time.Hour)
		require.NoError(t, err)

		_, err = v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token without expiry", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String(), Issuer: "console-dev"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := IssueToken(testSecret, "someone-else", userID, "", time.Hour)
		require.NoError(t, err)

		_, err = v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := IssueToken([]byte("another-secret-key-min-32-bytes!!"), "console-dev", userID, "", time.Hour)
		require.NoError(t, err)

		_, err = v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject is not a UUID", func(t *testing.T) {
		claims := claimsFor(userID, time.Hour)
		claims.Subject = "user123"
		claims.Issuer = "console-dev"
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ES256 rejected when only a secret is configured", func(t *testing.T) {
		token := createES256Token(t, generateECKeyPair(t), "k1", claimsFor(userID, time.Hour))

		_, err := v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := v.Authenticate(requestWithBearer("invalid.token.string"))
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTVerifier_ES256(t *testing.T) {
	privateKey := generateECKeyPair(t)
	srv, hits := jwksServer(t, privateKey, "key-1")

	v, err := NewJWTVerifier(VerifierConfig{Keys: NewJWKSKeyCache(srv.URL, srv.Client())})
	require.NoError(t, err)

	userID := uuid.Must(uuid.NewV7())

	t.Run("valid token", func(t *testing.T) {
		token := createES256Token(t, privateKey, "key-1", claimsFor(userID, time.Hour))

		id, err := v.Authenticate(requestWithBearer(token))
		require.NoError(t, err)
		require.Equal(t, userID, id.UserID)
	})

	t.Run("keys are cached", func(t *testing.T) {
		token := createES256Token(t, privateKey, "key-1", claimsFor(userID, time.Hour))

		_, err := v.Authenticate(requestWithBearer(token))
		require.NoError(t, err)
		require.Equal(t, int32(1), hits.Load())
	})

	t.Run("unknown kid", func(t *testing.T) {
		token := createES256Token(t, privateKey, "key-2", claimsFor(userID, time.Hour))

		_, err := v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed by another key", func(t *testing.T) {
		token := createES256Token(t, generateECKeyPair(t), "key-1", claimsFor(userID, time.Hour))

		_, err := v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("HS256 rejected when only keys are configured", func(t *testing.T) {
		token, err := IssueToken(testSecret, "", userID, "", time.Hour)
		require.NoError(t, err)

		_, err = v.Authenticate(requestWithBearer(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWKSKeyCache(t *testing.T) {
	t.Run("endpoint failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		cache := NewJWKSKeyCache(srv.URL, srv.Client())
		_, err := cache.GetKey(context.Background(), "key-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "JWKS request failed")
	})

	t.Run("unparseable keys are skipped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"keys":[{"kty":"RSA","kid":"rsa-1"}]}`))
		}))
		defer srv.Close()

		cache := NewJWKSKeyCache(srv.URL, srv.Client())
		_, err := cache.GetKey(context.Background(), "rsa-1")
		require.ErrorContains(t, err, "kid not found in JWKS")
	})
}

func TestParseJWK(t *testing.T) {
	tests := []struct {
		name    string
		jwk     map[string]any
		wantErr string
	}{
		{name: "wrong key type", jwk: map[string]any{"kty": "RSA"}, wantErr: "unsupported key type"},
		{name: "wrong curve", jwk: map[string]any{"kty": "EC", "crv": "P-384"}, wantErr: "unsupported curve"},
		{name: "missing x", jwk: map[string]any{"kty": "EC", "crv": "P-256", "y": "AA"}, wantErr: "missing x coordinate"},
		{name: "missing y", jwk: map[string]any{"kty": "EC", "crv": "P-256", "x": "AA"}, wantErr: "missing y coordinate"},
		{name: "bad x encoding", jwk: map[string]any{"kty": "EC", "crv": "P-256", "x": "!!", "y": "AA"}, wantErr: "failed to decode x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJWK(tt.jwk)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
