package console

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/secondary-inference/console/internal/models"
)

// WriteSources prints sources as an aligned table, or the placeholder when empty.
func WriteSources(out io.Writer, items []*models.SourceListItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, NoSourcesMessage)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tSCHEMA\tSTATUS\tPROJECT\tCREATED")

	for _, s := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Name,
			s.Kind,
			s.SchemaVersion,
			s.Status,
			s.Project.Name,
			formatAge(s.CreatedAt),
		)
	}

	return w.Flush()
}

// WriteJobs prints jobs as an aligned table, or the placeholder when empty.
func WriteJobs(out io.Writer, items []*models.JobListItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, NoJobsMessage)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSOURCE\tSTATUS\tCREATED\tERROR")

	for _, j := range items {
		errMsg := "-"
		if j.ErrorMessage != nil {
			errMsg = *j.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID,
			j.JobType,
			j.Source.Name,
			j.Status,
			formatAge(j.CreatedAt),
			errMsg,
		)
	}

	return w.Flush()
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}
