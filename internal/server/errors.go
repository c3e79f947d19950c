package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/secondary-inference/console/internal/ingest"
)

const (
	msgUnauthorized = "Unauthorized"
	msgNoProjects   = "No projects found"
	msgInternal     = "Internal server error"
)

// Error kinds recorded on console.requests.errors.total.
const (
	kindUnauthorized = "unauthorized"
	kindValidation   = "validation"
	kindNoProject    = "no_project"
	kindPersistence  = "persistence"
	kindUnexpected   = "unexpected"
)

type errorBody struct {
	Error string `json:"error"`
}

// classify maps a service error to its HTTP status, caller-facing message and kind.
func classify(err error) (int, string, string) {
	var (
		verr *ingest.ValidationError
		perr *ingest.PersistenceError
	)

	switch {
	case errors.Is(err, ingest.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized, kindUnauthorized
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message, kindValidation
	case errors.Is(err, ingest.ErrNoProject):
		return http.StatusBadRequest, msgNoProjects, kindNoProject
	case errors.As(err, &perr):
		return http.StatusInternalServerError, perr.Message, kindPersistence
	default:
		return http.StatusInternalServerError, msgInternal, kindUnexpected
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, kind := classify(err)

	s.metrics.RecordError(r.Context(), kind)

	if kind == kindUnexpected {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Unexpected error")
	}

	writeJSON(w, status, errorBody{Error: message})
}
