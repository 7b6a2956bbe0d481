// Package tui provides an interactive terminal view of solve and install progress.
package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/strata/internal/ui/output"
)

const (
	spanListWidthRatio = 0.35
	logPaneBorderWidth = 4
)

// SpanStatus is the state of one unit of work.
type SpanStatus string

const (
	// StatusPending marks a planned unit that has not started.
	StatusPending SpanStatus = "Pending"
	// StatusRunning marks a unit in progress.
	StatusRunning SpanStatus = "Running"
	// StatusDone marks a unit that succeeded.
	StatusDone SpanStatus = "Done"
	// StatusError marks a unit that failed.
	StatusError SpanStatus = "Error"
)

// SpanNode is one row of the span list, e.g. "solve default/linux-64" or "install default".
type SpanNode struct {
	Name     string
	Status   SpanStatus
	Depth    int
	Started  time.Time
	Duration time.Duration
	Err      error
	Log      *LogView
}

// Model is the bubbletea model of the progress view.
type Model struct {
	Spans  []*SpanNode
	ByName map[string]*SpanNode
	BySpan map[string]*SpanNode

	SelectedIdx int
	ListOffset  int
	ListHeight  int
	LogWidth    int
	LogHeight   int
	// FollowMode moves the selection to whichever span started last.
	FollowMode bool
}

// NewModel creates an empty model whose colours match the profile of w.
func NewModel(w io.Writer) Model {
	lipgloss.SetColorProfile(output.Profile(w))
	return Model{
		ByName:     make(map[string]*SpanNode),
		BySpan:     make(map[string]*SpanNode),
		FollowMode: true,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case MsgPlan:
		for _, name := range msg.Names {
			m.ensureSpan(name, 0)
		}
	case MsgSpanStart:
		depth := 0
		if parent, ok := m.BySpan[msg.ParentID]; ok {
			depth = parent.Depth + 1
		}
		node := m.ensureSpan(msg.Name, depth)
		node.Status = StatusRunning
		node.Started = msg.StartTime
		node.Err = nil
		m.BySpan[msg.SpanID] = node
		if m.FollowMode {
			m.selectName(msg.Name)
		}
	case MsgSpanLog:
		if node, ok := m.BySpan[msg.SpanID]; ok {
			_, _ = node.Log.Write(msg.Data)
		}
	case MsgSpanComplete:
		if node, ok := m.BySpan[msg.SpanID]; ok {
			node.Duration = msg.EndTime.Sub(node.Started)
			node.Err = msg.Err
			node.Status = StatusDone
			if msg.Err != nil {
				node.Status = StatusError
			}
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Interrupt
	case "q":
		return tea.Quit
	case "k", "up":
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
			m.FollowMode = false
			m.ensureVisible()
		}
	case "j", "down":
		if m.SelectedIdx < len(m.Spans)-1 {
			m.SelectedIdx++
			m.FollowMode = false
			m.ensureVisible()
		}
	case "esc":
		m.FollowMode = true
		for i := len(m.Spans) - 1; i >= 0; i-- {
			if m.Spans[i].Status == StatusRunning {
				m.SelectedIdx = i
				break
			}
		}
		m.ensureVisible()
	default:
		if node := m.Selected(); node != nil {
			node.Log.Scroll(msg.String())
		}
	}
	return nil
}

// ensureSpan returns the row of name, appending it when the name is new.
func (m *Model) ensureSpan(name string, depth int) *SpanNode {
	if node, ok := m.ByName[name]; ok {
		return node
	}
	log := NewLogView()
	if m.LogWidth > 0 && m.LogHeight > 0 {
		log.Resize(m.LogWidth, m.LogHeight)
	}
	node := &SpanNode{Name: name, Status: StatusPending, Depth: depth, Log: log}
	m.Spans = append(m.Spans, node)
	m.ByName[name] = node
	return node
}

func (m *Model) selectName(name string) {
	for i, node := range m.Spans {
		if node.Name == name {
			m.SelectedIdx = i
			break
		}
	}
	m.ensureVisible()
}

// Selected returns the highlighted span, or nil when there is none.
func (m *Model) Selected() *SpanNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Spans) {
		return m.Spans[m.SelectedIdx]
	}
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) resize(width, height int) {
	listWidth := int(float64(width) * spanListWidthRatio)
	m.LogWidth = width - listWidth - logPaneBorderWidth
	m.LogHeight = height - lipgloss.Height(titleStyle.Render("LOGS"))
	m.ListHeight = height - lipgloss.Height(titleStyle.Render("PROGRESS")+"\n\n")
	m.ensureVisible()
	for _, node := range m.Spans {
		node.Log.Resize(m.LogWidth, m.LogHeight)
	}
}
