package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette
const (
	ColorLime     = "154" // Success, ready
	ColorWhite    = "255" // Paths
	ColorGray     = "245" // Secondary text
	ColorDarkGray = "238" // Timing details
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the console styles.
type Styles struct {
	Path    lipgloss.Style
	Added   lipgloss.Style
	Changed lipgloss.Style
	Removed lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// DefaultStyles returns the coloured styles used on a terminal.
func DefaultStyles() Styles {
	return Styles{
		Path:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Added:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Changed: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Removed: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Path:    lipgloss.NewStyle(),
		Added:   lipgloss.NewStyle(),
		Changed: lipgloss.NewStyle(),
		Removed: lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
	}
}

// ShouldUseColor reports whether f is a terminal and colour is not disabled
// by flag or the NO_COLOR environment variable.
func ShouldUseColor(f *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
