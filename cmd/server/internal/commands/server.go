package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"filippo.io/csrf"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/secondary-inference/console/internal/auth"
	"github.com/secondary-inference/console/internal/client"
	httpmiddleware "github.com/secondary-inference/console/internal/http"
	"github.com/secondary-inference/console/internal/ingest"
	"github.com/secondary-inference/console/internal/logger"
	"github.com/secondary-inference/console/internal/server"
	"github.com/secondary-inference/console/internal/store"
	memorystore "github.com/secondary-inference/console/internal/store/memory"
	postgresstore "github.com/secondary-inference/console/internal/store/postgres"
	"github.com/secondary-inference/console/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "console-server"

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"CONSOLE_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"CONSOLE_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"CONSOLE_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"CONSOLE_CORS_ORIGINS"`

	// Identity verification
	JWTSecret    string `help:"HMAC secret for HS256 access tokens" default:"" env:"CONSOLE_JWT_SECRET"`
	JWKSURL      string `help:"JWKS URL for ES256 access tokens" default:"" env:"CONSOLE_JWKS_URL"`
	JWTIssuer    string `help:"required token issuer, unchecked when empty" default:"" env:"CONSOLE_JWT_ISSUER"`
	JWKSCacheDir string `help:"directory for the JWKS HTTP cache, in memory when empty" default:"" env:"CONSOLE_JWKS_CACHE_DIR"`

	// Telemetry
	Tracing     bool    `help:"enable tracing" default:"false" env:"CONSOLE_TRACING"`
	SampleRatio float64 `help:"trace sampling ratio for root spans" default:"1.0" env:"CONSOLE_TRACE_SAMPLE_RATIO"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"CONSOLE_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns            int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns            int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime     int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime     int32 `help:"maximum connection idle time in seconds" default:"1800"`
	StartupRetrySeconds int32 `help:"how long to retry the initial connection in seconds" default:"30"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"CONSOLE_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) poolConfig() *postgresstore.PoolConfig {
	cfg := &postgresstore.PoolConfig{
		ConnString:          s.ConnString,
		MaxConns:            s.MaxConns,
		MinConns:            s.MinConns,
		MaxConnLifetime:     s.MaxConnLifetime,
		MaxConnIdleTime:     s.MaxConnIdleTime,
		StartupRetrySeconds: s.StartupRetrySeconds,
	}
	cfg.ApplyDefaults()
	return cfg
}

// Validate is called by kong after flags are parsed.
func (c *ServeCmd) Validate() error {
	if c.JWTSecret == "" && c.JWKSURL == "" {
		return errors.New("a JWT secret or JWKS URL is required (--jwt-secret/CONSOLE_JWT_SECRET or --jwks-url/CONSOLE_JWKS_URL)")
	}
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS certificate and key must be provided together (--cert and --key)")
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be between 0 and 1, got %v", c.SampleRatio)
	}
	if c.StoreType == "postgres" {
		if c.PostgresStore.ConnString == "" {
			return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
		}
		if err := c.PostgresStore.poolConfig().Validate(); err != nil {
			return fmt.Errorf("invalid postgres flags: %w", err)
		}
	}
	return nil
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug, serviceName)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Float64("sample_ratio", c.SampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: serviceName,
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	// Create the backend based on store type
	var backend store.Backend

	switch c.StoreType {
	case "postgres":
		pool, err := postgresstore.NewPool(ctx, c.PostgresStore.poolConfig())
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		backend = postgresstore.NewBackend(pool)
		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		backend = memorystore.NewStore().Backend()
		log.Info().Msg("Using in-memory stores")
	}

	verifierCfg := auth.VerifierConfig{
		Secret: []byte(c.JWTSecret),
		Issuer: c.JWTIssuer,
	}
	if c.JWKSURL != "" {
		cachingClient := client.NewCachingHTTPClient(c.JWKSCacheDir, 10*time.Second)
		verifierCfg.Keys = auth.NewJWKSKeyCache(c.JWKSURL, cachingClient)
		log.Info().Str("jwks_url", c.JWKSURL).Msg("ES256 verification enabled")
	}
	verifier, err := auth.NewJWTVerifier(verifierCfg)
	if err != nil {
		return fmt.Errorf("failed to create JWT verifier: %w", err)
	}

	srv, err := server.NewServer(ingest.NewService(backend), verifier)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	handler := c.handler(srv.Handler(), log)
	if c.Tracing {
		handler = otelhttp.NewHandler(handler, serviceName)
	}

	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" {
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// handler wraps the routes with cross-origin protection, CORS for API paths,
// compression and request logging.
func (c *ServeCmd) handler(mux http.Handler, log zerolog.Logger) http.Handler {
	// API routes accept the session cookie too, so they need CSRF protection.
	// Origins allowed by CORS are trusted to make unsafe requests.
	apiProtection := csrf.New()
	for _, origin := range c.CORSOrigins {
		if err := apiProtection.AddTrustedOrigin(origin); err != nil {
			log.Warn().Err(err).Str("origin", origin).Msg("Ignoring CORS origin for cross-origin protection")
		}
	}
	api := withCORS(c.CORSOrigins, apiProtection.Handler(mux))
	pages := csrf.New().Handler(mux)

	split := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			api.ServeHTTP(w, r)
		} else {
			pages.ServeHTTP(w, r)
		}
	})

	return httpmiddleware.Chain(gzhttp.GzipHandler(split),
		logger.Requests(log),
		httpmiddleware.ClientIPMiddleware(),
	)
}

// isAPIRoute returns true if the path is an API route that needs CORS
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/health"
}

// withCORS adds CORS support to the JSON API handler.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true, // Required for cookie-based authentication
	})
	return middleware.Handler(h)
}
