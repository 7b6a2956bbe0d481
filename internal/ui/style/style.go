// Package style holds the colours and glyphs shared by every strata output.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Accent = lipgloss.Color("#0EA5E9")
	Muted  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	White  = lipgloss.Color("#FFFFFF")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Plus    = "+"
	Minus   = "-"
	Tilde   = "~"
)

// StateColor returns the colour used for a freshness or result label.
func StateColor(ok, partial bool) lipgloss.Color {
	switch {
	case ok:
		return Green
	case partial:
		return Yellow
	default:
		return Red
	}
}
