package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// palette holds the styles used for run summaries.
type palette struct {
	name    lipgloss.Style
	ok      lipgloss.Style
	partial lipgloss.Style
	failed  lipgloss.Style
	muted   lipgloss.Style
}

// newPalette returns styles bound to w. Writers that are not terminals
// get plain text.
func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		name:    r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		partial: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		failed:  r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}

func (p palette) status(s domain.RunStatus) string {
	switch s {
	case domain.RunSucceeded:
		return p.ok.Render("ok")
	case domain.RunPartial:
		return p.partial.Render("partial")
	default:
		return p.failed.Render("failed")
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderSummary writes one block per source: counts, then every item
// failure with its reason.
func renderSummary(w io.Writer, results []*domain.SyncResult) {
	p := newPalette(w)
	var written, unchanged, deleted, failedItems, failedSources int

	for _, r := range results {
		if r == nil {
			continue
		}
		label := r.Source
		if r.DryRun {
			label += " (dry run)"
		}
		fmt.Fprintf(w, "%s %s\n", p.name.Render(label), p.status(r.Status()))

		if r.Failed() {
			failedSources++
			fmt.Fprintf(w, "  %s\n", p.failed.Render("error: "+r.Err.Error()))
			continue
		}

		fmt.Fprintf(w, "  written %d, unchanged %d, deleted %d, failed %d %s\n",
			r.Written, r.Unchanged, r.Deleted, len(r.Errors),
			p.muted.Render("("+r.Duration().Round(time.Millisecond).String()+")"))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s %s\n", p.failed.Render("-"), e.Error())
		}

		written += r.Written
		unchanged += r.Unchanged
		deleted += r.Deleted
		failedItems += len(r.Errors)
	}

	if len(results) > 1 {
		fmt.Fprintf(w, "\n%d sources: written %d, unchanged %d, deleted %d, failed items %d, failed sources %d\n",
			len(results), written, unchanged, deleted, failedItems, failedSources)
	}
}

// renderChanges lists reconciliation decisions. Unchanged files are
// only listed when verbose.
func renderChanges(w io.Writer, r *domain.SyncResult, all bool) {
	p := newPalette(w)
	for _, c := range r.Changes {
		var marker string
		switch c.Action {
		case domain.ActionWrite:
			marker = p.ok.Render("+")
		case domain.ActionDelete:
			marker = p.failed.Render("-")
		case domain.ActionKeep:
			marker = p.partial.Render("~")
		default:
			if !all {
				continue
			}
			marker = p.muted.Render("=")
		}
		fmt.Fprintf(w, "%s %s\n", marker, c.RelativePath)
	}
}
