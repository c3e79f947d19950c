package commands

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/secondary-inference/console/internal/auth"
	"github.com/stretchr/testify/require"
)

func validServeCmd() ServeCmd {
	return ServeCmd{
		Listen:      "127.0.0.1:0",
		CORSOrigins: []string{"http://localhost:3000"},
		JWTSecret:   "test-secret-key-min-32-bytes-long",
		SampleRatio: 1,
		StoreType:   "memory",
	}
}

func TestServeCmd_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServeCmd)
		wantErr string
	}{
		{name: "memory with secret", mutate: func(c *ServeCmd) {}},
		{name: "jwks only", mutate: func(c *ServeCmd) {
			c.JWTSecret = ""
			c.JWKSURL = "https://auth.example.com/.well-known/jwks.json"
		}},
		{name: "no verifier", mutate: func(c *ServeCmd) { c.JWTSecret = "" }, wantErr: "a JWT secret or JWKS URL is required"},
		{name: "cert without key", mutate: func(c *ServeCmd) { c.Cert = "cert.pem" }, wantErr: "TLS certificate and key must be provided together"},
		{name: "bad sample ratio", mutate: func(c *ServeCmd) { c.SampleRatio = 1.5 }, wantErr: "trace sample ratio"},
		{name: "postgres without conn string", mutate: func(c *ServeCmd) { c.StoreType = "postgres" }, wantErr: "PostgreSQL connection string is required"},
		{name: "postgres min over max", mutate: func(c *ServeCmd) {
			c.StoreType = "postgres"
			c.PostgresStore.ConnString = "postgres://localhost/console"
			c.PostgresStore.MaxConns = 2
			c.PostgresStore.MinConns = 5
		}, wantErr: "min conns (5) exceeds max conns (2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validServeCmd()
			tt.mutate(&cmd)
			err := cmd.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestIsAPIRoute(t *testing.T) {
	require.True(t, isAPIRoute("/api/sources"))
	require.True(t, isAPIRoute("/api/setup-demo-data"))
	require.True(t, isAPIRoute("/health"))
	require.False(t, isAPIRoute("/console/sources"))
	require.False(t, isAPIRoute("/"))
}

func TestHandler_CrossOriginProtection(t *testing.T) {
	cmd := validServeCmd()
	var reached atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		reached.Add(1)
		_, _ = w.Write([]byte(strings.Repeat("ok", 1024)))
	})
	handler := cmd.handler(mux, zerolog.Nop())

	t.Run("cross site form post rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/console/sources/new", strings.NewReader("name=x"))
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("cross site api post with session cookie rejected", func(t *testing.T) {
		before := reached.Load()
		req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{"name":"x","kind":"tracks","schema_version":"1"}`))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, before, reached.Load())
	})

	t.Run("cross site api post from old browser rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{}`))
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("api post from configured origin allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{}`))
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Sec-Fetch-Site", "same-site")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("api post without browser headers allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sources", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("api allows configured origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/sources", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("responses are compressed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	})
}
