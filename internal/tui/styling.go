package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(termenv.ANSIBrightWhite))
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(termenv.ANSIBrightGreen))
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff0000"))
	PathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3a96dd"))
)

func paint(style lipgloss.Style, text string, colorize bool) string {
	if !colorize {
		return text
	}
	return style.Render(text)
}

// Path renders a file path for log output.
func Path(path string, colorize bool) string {
	return paint(PathStyle, path, colorize)
}

// SuccessIcon prefixes a written declaration file.
func SuccessIcon(colorize bool) string {
	return paint(SuccessStyle, "✅", colorize)
}

// ErrorIcon prefixes a translation file that failed to compile.
func ErrorIcon(colorize bool) string {
	return paint(ErrorStyle, "❌", colorize)
}

// WatchIcon prefixes the watch mode status lines.
func WatchIcon(colorize bool) string {
	return paint(TitleStyle, "👀", colorize)
}
