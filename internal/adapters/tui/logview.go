package tui

import (
	"bytes"
	"sync"

	"github.com/vito/midterm"
)

// LogView is a scrollable virtual terminal holding the output of one span.
// It keeps following new output while scrolled to the bottom.
type LogView struct {
	mu     sync.Mutex
	vt     *midterm.Terminal
	offset int
	width  int
	height int
}

// NewLogView creates an empty log view.
func NewLogView() *LogView {
	return &LogView{vt: midterm.NewAutoResizingTerminal()}
}

// Write feeds output into the virtual terminal.
func (l *LogView) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	following := l.offset >= l.maxOffset()
	n, err := l.vt.Write(p)
	if following {
		l.offset = l.maxOffset()
	}
	return n, err
}

// Resize sets the visible area, keeping the view pinned to the bottom when it was there.
func (l *LogView) Resize(width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	following := l.offset >= l.maxOffset()
	l.width = max(width, 1)
	l.height = max(height, 1)
	l.vt.ResizeX(l.width)
	if following {
		l.offset = l.maxOffset()
	}
	l.clamp()
}

// Scroll moves the view for a navigation key; other keys are ignored.
func (l *LogView) Scroll(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch key {
	case "pgup", "shift+up":
		l.offset -= l.height
	case "pgdown", "shift+down":
		l.offset += l.height
	case "home", "g":
		l.offset = 0
	case "end", "G":
		l.offset = l.maxOffset()
	}
	l.clamp()
}

// Offset is the first visible line.
func (l *LogView) Offset() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offset
}

// Lines is the number of lines written so far.
func (l *LogView) Lines() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vt.UsedHeight()
}

// Size returns the visible width and height.
func (l *LogView) Size() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.width, l.height
}

// View renders the visible lines.
func (l *LogView) View() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clamp()
	var buf bytes.Buffer
	for i := range l.height {
		row := l.offset + i
		if row >= l.vt.UsedHeight() {
			break
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		_ = l.vt.RenderLine(&buf, row)
	}
	return buf.String()
}

func (l *LogView) maxOffset() int {
	return max(l.vt.UsedHeight()-l.height, 0)
}

func (l *LogView) clamp() {
	l.offset = min(max(l.offset, 0), l.maxOffset())
}
