package style

import "github.com/charmbracelet/lipgloss"

// Colors used for framed CLI reports.
var (
	Text  = lipgloss.Color("#cdd6f4")
	HiRed = lipgloss.Color("#f38ba8")
)
