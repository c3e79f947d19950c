package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/secondary-inference/console/internal/auth"
	"github.com/secondary-inference/console/internal/console"
	httpmiddleware "github.com/secondary-inference/console/internal/http"
	"github.com/secondary-inference/console/internal/ingest"
	"github.com/secondary-inference/console/internal/models"
	"github.com/secondary-inference/console/internal/telemetry"
)

// maxBodyBytes caps create request bodies.
const maxBodyBytes = 1 << 20

// Server exposes the console service over HTTP: the JSON API under /api/ and
// the HTML console under /console/.
type Server struct {
	svc     *ingest.Service
	authn   auth.Authenticator
	pages   *console.Pages
	metrics *telemetry.Metrics
}

// NewServer creates a server. The authenticator and service are explicit so
// tests can supply fakes.
func NewServer(svc *ingest.Service, authn auth.Authenticator) (*Server, error) {
	pages, err := console.NewPages()
	if err != nil {
		return nil, err
	}

	return &Server{
		svc:     svc,
		authn:   authn,
		pages:   pages,
		metrics: telemetry.GetMetrics(),
	}, nil
}

// APIHandler returns the JSON API routes, each behind the authentication gate.
func (s *Server) APIHandler() http.Handler {
	mux := http.NewServeMux()

	gate := auth.RequireIdentity(s.authn, http.HandlerFunc(s.unauthorizedJSON))
	recoverer := httpmiddleware.RecoverMiddleware(http.HandlerFunc(s.internalErrorJSON))

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, httpmiddleware.Chain(h, recoverer, gate))
	}

	handle("GET /api/sources", s.listSources)
	handle("POST /api/sources", s.createSource)
	handle("GET /api/jobs", s.listJobs)
	handle("POST /api/jobs", s.createJob)
	handle("POST /api/setup-demo-data", s.setupDemoData)
	handle("GET /api/test-setup", s.testSetup)

	return mux
}

// Handler returns every route: health, the JSON API and the HTML console.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/api/", s.APIHandler())
	mux.Handle("/console/", s.ConsoleHandler())
	mux.Handle("GET /{$}", http.RedirectHandler("/console/", http.StatusFound))

	return mux
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListSources(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]*models.SourceListItem{"sources": items})
}

func (s *Server) createSource(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	source, err := s.svc.CreateSource(r.Context(), auth.IdentityFromContext(r.Context()), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*models.Source{"source": source})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListJobs(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]*models.JobListItem{"jobs": items})
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	job, err := s.svc.CreateJob(r.Context(), auth.IdentityFromContext(r.Context()), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*models.Job{"job": job})
}

func (s *Server) setupDemoData(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SetupDemoData(r.Context(), auth.IdentityFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) testSetup(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.TestSetup(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) unauthorizedJSON(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, ingest.ErrUnauthorized)
}

func (s *Server) internalErrorJSON(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordError(r.Context(), kindUnexpected)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgInternal})
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &ingest.ValidationError{Message: "Request body too large"}
		}
		return nil, &ingest.ValidationError{Message: "Invalid request body"}
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
