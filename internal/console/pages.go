package console

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/secondary-inference/console/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Placeholders rendered instead of an empty table.
const (
	NoSourcesMessage = "No sources found"
	NoJobsMessage    = "No jobs found"
)

const (
	pageDashboard = "dashboard.html"
	pageSources   = "sources.html"
	pageJobs      = "jobs.html"
	pageSourceNew = "source_new.html"
	pageSignIn    = "signin.html"
)

// SourceForm holds the values of the new source form, echoed back on errors.
type SourceForm struct {
	Name          string
	Kind          string
	SchemaVersion string
}

// Pages renders the HTML console. Each page is parsed together with the shared
// layout so pages can define their own content block.
type Pages struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
	"optionalTime": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"title": func(v any) string {
		s := fmt.Sprint(v)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// NewPages parses the embedded templates.
func NewPages() (*Pages, error) {
	p := &Pages{pages: make(map[string]*template.Template)}

	for _, name := range []string{pageDashboard, pageSources, pageJobs, pageSourceNew, pageSignIn} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		p.pages[name] = tmpl
	}

	return p, nil
}

type pageData struct {
	Title   string
	Section string
	Error   string
	Empty   string

	Summary Summary
	Sources []*models.SourceListItem
	Jobs    []*models.JobListItem

	Form  SourceForm
	Kinds []models.SourceKind
}

// Summary is the dashboard overview of an identity's sources and jobs.
type Summary struct {
	Sources       int
	ActiveSources int
	RunningJobs   int
	PendingJobs   int
	FinishedJobs  int
	FailedJobs    int
}

// Summarize counts sources by status and jobs by lifecycle stage.
func Summarize(sources []*models.SourceListItem, jobs []*models.JobListItem) Summary {
	sum := Summary{Sources: len(sources)}
	for _, s := range sources {
		if s.Status == models.SourceStatusActive {
			sum.ActiveSources++
		}
	}
	for _, j := range jobs {
		switch {
		case j.Status.Terminal():
			sum.FinishedJobs++
			if j.Status == models.JobStatusFailed {
				sum.FailedJobs++
			}
		case j.Status == models.JobStatusRunning:
			sum.RunningJobs++
		default:
			sum.PendingJobs++
		}
	}
	return sum
}

// Dashboard renders the console overview. A non-empty errMsg replaces the counts.
func (p *Pages) Dashboard(w io.Writer, summary Summary, errMsg string) error {
	return p.render(w, pageDashboard, pageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Error:   errMsg,
		Summary: summary,
	})
}

// Sources renders the source list. A non-empty errMsg replaces the table.
func (p *Pages) Sources(w io.Writer, items []*models.SourceListItem, errMsg string) error {
	return p.render(w, pageSources, pageData{
		Title:   "Sources",
		Section: "sources",
		Error:   errMsg,
		Empty:   NoSourcesMessage,
		Sources: items,
	})
}

// Jobs renders the job list. A non-empty errMsg replaces the table.
func (p *Pages) Jobs(w io.Writer, items []*models.JobListItem, errMsg string) error {
	return p.render(w, pageJobs, pageData{
		Title:   "Jobs",
		Section: "jobs",
		Error:   errMsg,
		Empty:   NoJobsMessage,
		Jobs:    items,
	})
}

// NewSource renders the new source form.
func (p *Pages) NewSource(w io.Writer, form SourceForm, errMsg string) error {
	if form.Kind == "" {
		form.Kind = string(models.SourceKindTracks)
	}
	if form.SchemaVersion == "" {
		form.SchemaVersion = "1.0"
	}
	return p.render(w, pageSourceNew, pageData{
		Title:   "Add New Source",
		Section: "sources",
		Error:   errMsg,
		Form:    form,
		Kinds:   models.SourceKinds,
	})
}

// SignIn renders the page shown to unauthenticated browsers.
func (p *Pages) SignIn(w io.Writer, section string) error {
	return p.render(w, pageSignIn, pageData{
		Title:   "Sign in",
		Section: section,
		Error:   SignInMessage(section),
	})
}

// SignInMessage is the human-readable prompt for an unauthenticated view of section.
func SignInMessage(section string) string {
	return "Please sign in to view " + section
}

func (p *Pages) render(w io.Writer, page string, data pageData) error {
	tmpl, ok := p.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %s", page)
	}

	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	return nil
}
