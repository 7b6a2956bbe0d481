package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/strata/internal/ui/style"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.spanList(), m.logPane())
}

func (m *Model) spanList() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("PROGRESS") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Spans))
	start := min(m.ListOffset, end)
	for i := start; i < end; i++ {
		s.WriteString(m.row(i, m.Spans[i]) + "\n")
	}
	return listStyle.Render(s.String())
}

func (m *Model) row(index int, node *SpanNode) string {
	st := statusStyle(node.Status)
	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if node.Status == StatusPending || node.Status == StatusRunning {
			st = selectedStyle
		}
	}

	content := strings.Repeat("  ", node.Depth) + statusIcon(node.Status) + " " + node.Name
	if node.Status == StatusDone || node.Status == StatusError {
		content += " " + node.Duration.Round(time.Millisecond).String()
	}
	return cursor + st.Render(content)
}

func statusIcon(s SpanStatus) string {
	switch s {
	case StatusRunning:
		return "●"
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	default:
		return "○"
	}
}

func statusStyle(s SpanStatus) lipgloss.Style {
	switch s {
	case StatusRunning:
		return runningStyle
	case StatusDone:
		return doneStyle
	case StatusError:
		return errorStyle
	default:
		return pendingStyle
	}
}

func (m *Model) logPane() string {
	node := m.Selected()
	if node == nil {
		return logStyle.Render(titleStyle.Render("LOGS (Waiting...)"))
	}

	mode := " (Manual)"
	if m.FollowMode {
		mode = " (Following)"
	}
	header := titleStyle.Render("LOGS: " + node.Name + mode)
	content := node.Log.View()
	if node.Status == StatusError && node.Err != nil {
		header = failureTitleStyle.Render("FAILED: " + node.Name)
		content = lipgloss.JoinVertical(lipgloss.Left, content, errorStyle.Render(node.Err.Error()))
	}
	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
