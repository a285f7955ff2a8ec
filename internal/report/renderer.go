// Package report prints pipeline and job status to a terminal.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/vilaca/gitlab-ci-status/internal/domain"
)

// Renderer writes the status report to a single writer.
// Colors are only emitted when the writer is a terminal that supports them.
type Renderer struct {
	out    io.Writer
	styles styles
}

// NewRenderer creates a renderer bound to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		out:    w,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
}

// RenderStatus writes the colored label of status on its own line.
func (r *Renderer) RenderStatus(status domain.Status) error {
	style := r.styles.status(status.Kind())
	_, err := fmt.Fprintln(r.out, style.Render(status.Label()))
	return err
}

// Branch writes the branch header line.
func (r *Renderer) Branch(name string) error {
	_, err := fmt.Fprintf(r.out, "Branch: %s\n", r.styles.branch.Render(name))
	return err
}

// NoPipelines writes the message shown when the branch has no pipelines.
func (r *Renderer) NoPipelines() error {
	_, err := fmt.Fprintln(r.out, r.styles.info.Render("No pipelines found for this branch"))
	return err
}

// Pipeline writes the pipeline id followed by its status.
func (r *Renderer) Pipeline(p domain.Pipeline) error {
	if _, err := fmt.Fprintf(r.out, "Pipeline ID: %d\nStatus: \n", p.ID); err != nil {
		return err
	}
	return r.RenderStatus(p.Status)
}

// Jobs writes one line per job, in the given order. Nothing is written for no jobs.
func (r *Renderer) Jobs(jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	if _, err := fmt.Fprint(r.out, "\nJobs:\n"); err != nil {
		return err
	}

	for _, job := range jobs {
		if _, err := fmt.Fprintf(r.out, "  %s (%s) - ", job.Name, job.Stage); err != nil {
			return err
		}
		if err := r.RenderStatus(job.Status); err != nil {
			return err
		}
	}

	return nil
}

// Error writes err as a red "Error: ..." line.
func (r *Renderer) Error(err error) error {
	_, werr := fmt.Fprintln(r.out, r.styles.err.Render("Error: "+err.Error()))
	return werr
}
