// package formatter renders run summaries for terminal and JSON output.
package formatter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/livesync/internal/shared"
	"github.com/desertthunder/livesync/internal/tasks"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// RenderJSON writes the summary as JSON, optionally indented.
func RenderJSON(w io.Writer, summary *tasks.RunSummary, pretty bool) error {
	data, err := shared.MarshalJSON(summary, pretty)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	fmt.Fprintln(w, string(data))
	return nil
}

// RenderSummary writes a human-readable report of the run.
//
// detail includes the per-item video listings alongside the counts.
func RenderSummary(w io.Writer, summary *tasks.RunSummary, detail bool) {
	header := fmt.Sprintf("Sync run %s", summary.RunID)
	if summary.DryRun {
		header += " (dry run)"
	}
	fmt.Fprintln(w, styles.title.Render(header))

	for _, result := range summary.Results {
		fmt.Fprintf(w, "\n%s\n", styles.title.Render(result.TaskName))
		fmt.Fprintf(w, "  live: %d  added: %d  removed: %d\n",
			result.LiveFound, result.Added, result.Removed)

		if detail {
			for _, item := range result.AddedDetail {
				line := fmt.Sprintf("  + %s", item.VideoID)
				if item.Title != "" {
					line += fmt.Sprintf("  %s", item.Title)
				}
				fmt.Fprintln(w, styles.ok.Render(line))
			}
			for _, item := range result.RemovedDetail {
				fmt.Fprintln(w, styles.warn.Render(fmt.Sprintf("  - %s", item.VideoID)))
			}
		}

		for _, msg := range result.Errors {
			fmt.Fprintln(w, styles.err.Render(fmt.Sprintf("  ! %s", msg)))
		}
	}

	fmt.Fprintln(w)
	status := styles.ok.Render("✓ success")
	if !summary.Success {
		status = styles.err.Render(fmt.Sprintf("✗ %d errors", summary.Totals.Errors))
	}
	fmt.Fprintf(w, "%s  %s\n", status, styles.help.Render(fmt.Sprintf(
		"%d tasks, %d live, %d added, %d removed in %dms",
		summary.TotalTasks, summary.Totals.Found, summary.Totals.Added,
		summary.Totals.Removed, summary.ExecutionTimeMs,
	)))
}
