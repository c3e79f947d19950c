package server

import (
	"bytes"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/secondary-inference/console/internal/auth"
	"github.com/secondary-inference/console/internal/console"
	httpmiddleware "github.com/secondary-inference/console/internal/http"
	"github.com/secondary-inference/console/internal/ingest"
)

// ConsoleHandler returns the HTML console routes. Browsers authenticate with
// the access token cookie; unauthenticated requests get a sign-in page.
func (s *Server) ConsoleHandler() http.Handler {
	mux := http.NewServeMux()

	recoverer := httpmiddleware.RecoverMiddleware(http.HandlerFunc(s.internalErrorHTML))

	handle := func(pattern, section string, h http.HandlerFunc) {
		gate := auth.RequireIdentity(s.authn, s.signIn(section))
		mux.Handle(pattern, httpmiddleware.Chain(h, recoverer, gate))
	}

	handle("GET /console/{$}", "dashboard", s.dashboardPage)
	handle("GET /console/sources", "sources", s.sourcesPage)
	handle("GET /console/sources/new", "sources", s.newSourcePage)
	handle("POST /console/sources/new", "sources", s.submitSource)
	handle("GET /console/jobs", "jobs", s.jobsPage)

	return mux
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	fail := func(err error) {
		status, message, kind := classify(err)
		s.metrics.RecordError(r.Context(), kind)
		s.renderHTML(w, r, status, func(buf *bytes.Buffer) error { return s.pages.Dashboard(buf, console.Summary{}, message) })
	}

	sources, err := s.svc.ListSources(r.Context(), id)
	if err != nil {
		fail(err)
		return
	}
	jobs, err := s.svc.ListJobs(r.Context(), id)
	if err != nil {
		fail(err)
		return
	}

	summary := console.Summarize(sources, jobs)
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error { return s.pages.Dashboard(buf, summary, "") })
}

func (s *Server) sourcesPage(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListSources(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		status, message, kind := classify(err)
		s.metrics.RecordError(r.Context(), kind)
		s.renderHTML(w, r, status, func(buf *bytes.Buffer) error { return s.pages.Sources(buf, nil, message) })
		return
	}
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error { return s.pages.Sources(buf, items, "") })
}

func (s *Server) jobsPage(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListJobs(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		status, message, kind := classify(err)
		s.metrics.RecordError(r.Context(), kind)
		s.renderHTML(w, r, status, func(buf *bytes.Buffer) error { return s.pages.Jobs(buf, nil, message) })
		return
	}
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error { return s.pages.Jobs(buf, items, "") })
}

func (s *Server) newSourcePage(w http.ResponseWriter, r *http.Request) {
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.pages.NewSource(buf, console.SourceForm{}, "")
	})
}

func (s *Server) submitSource(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderHTML(w, r, http.StatusBadRequest, func(buf *bytes.Buffer) error {
			return s.pages.NewSource(buf, console.SourceForm{}, "Invalid request body")
		})
		return
	}

	form := console.SourceForm{
		Name:          r.PostFormValue("name"),
		Kind:          r.PostFormValue("kind"),
		SchemaVersion: r.PostFormValue("schema_version"),
	}

	_, err := s.svc.CreateSourceFromRequest(r.Context(), auth.IdentityFromContext(r.Context()), &ingest.CreateSourceRequest{
		Name:          form.Name,
		Kind:          form.Kind,
		SchemaVersion: form.SchemaVersion,
	})
	if err != nil {
		status, message, kind := classify(err)
		s.metrics.RecordError(r.Context(), kind)
		s.renderHTML(w, r, status, func(buf *bytes.Buffer) error {
			return s.pages.NewSource(buf, form, message)
		})
		return
	}

	http.Redirect(w, r, "/console/sources", http.StatusSeeOther)
}

func (s *Server) signIn(section string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.RecordError(r.Context(), kindUnauthorized)
		s.renderHTML(w, r, http.StatusUnauthorized, func(buf *bytes.Buffer) error {
			return s.pages.SignIn(buf, section)
		})
	})
}

func (s *Server) internalErrorHTML(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordError(r.Context(), kindUnexpected)
	http.Error(w, msgInternal, http.StatusInternalServerError)
}

// renderHTML renders into a buffer so template failures become a plain 500
// instead of a truncated page.
func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, status int, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render page")
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write page")
	}
}
