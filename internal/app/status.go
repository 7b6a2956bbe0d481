package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/differ"
	"go.trai.ch/strata/internal/engine/staleness"
	"go.trai.ch/strata/internal/ui/output"
	"go.trai.ch/strata/internal/ui/style"
)

// CellStatus is one row of the status table.
type CellStatus struct {
	Key domain.CellKey
	// Locked is true when the lock document holds the cell with its current fingerprint.
	Locked bool
	// Pending is the number of operations the prefix is behind. Negative means not inspected.
	Pending int
}

// Status prints the lock and install state of every cell.
func (a *App) Status(_ context.Context) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	prev, loadErr := a.locks.Load(ws.Root)
	report := staleness.Detect(ws, prev, loadErr)
	host, _ := domain.CurrentPlatform()

	stale := make(map[domain.CellKey]bool, len(report.Stale))
	for _, k := range report.Stale {
		stale[k] = true
	}

	rows := make([]CellStatus, 0, len(ws.Cells))
	for _, cell := range ws.Cells {
		row := CellStatus{Key: cell.Key, Locked: !stale[cell.Key], Pending: -1}
		if locked, ok := prev.Cell(cell.Key); ok && cell.Key.Platform == host {
			installed, err := a.prefixes.ReadPrefix(domain.PrefixPath(ws.Root, cell.Key.Environment))
			if err != nil {
				return err
			}
			row.Pending = len(differ.Diff(locked.Records, installed))
		}
		rows = append(rows, row)
	}

	_, _ = fmt.Fprintf(a.stdout, "lock document: %s\n", report.State)
	if report.Reason != "" {
		_, _ = fmt.Fprintf(a.stdout, "reason: %s\n", report.Reason)
	}
	renderStatus(a.stdout, rows)
	return nil
}

func renderStatus(w io.Writer, rows []CellStatus) {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.Profile(w))

	header := []string{"ENVIRONMENT", "PLATFORM", "LOCK", "PREFIX"}
	cells := make([][]string, len(rows))
	colors := make([][]lipgloss.TerminalColor, len(rows))
	for i, row := range rows {
		lock, lockColor := "stale", style.StateColor(false, false)
		if row.Locked {
			lock, lockColor = "locked", style.StateColor(true, false)
		}
		prefix, prefixColor := "-", lipgloss.TerminalColor(style.Muted)
		switch {
		case row.Pending == 0:
			prefix, prefixColor = "in sync", style.StateColor(true, false)
		case row.Pending > 0:
			prefix, prefixColor = fmt.Sprintf("%d pending", row.Pending), style.StateColor(false, true)
		}
		cells[i] = []string{row.Key.Environment, string(row.Key.Platform), lock, prefix}
		colors[i] = []lipgloss.TerminalColor{lipgloss.NoColor{}, lipgloss.NoColor{}, lockColor, prefixColor}
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	line := func(values []string, styleOf func(i int) lipgloss.Style) string {
		parts := make([]string, len(values))
		for i, v := range values {
			s := styleOf(i)
			if i < len(values)-1 {
				s = s.Width(widths[i] + 2)
			}
			parts[i] = s.Render(v)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	heading := r.NewStyle().Bold(true).Foreground(style.Accent)
	_, _ = fmt.Fprintln(w, line(header, func(int) lipgloss.Style { return heading }))
	for i, row := range cells {
		_, _ = fmt.Fprintln(w, line(row, func(j int) lipgloss.Style {
			return r.NewStyle().Foreground(colors[i][j])
		}))
	}
}
