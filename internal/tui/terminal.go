// Package tui holds the terminal styling shared by the commands.
package tui

import (
	"io"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// terminalHooks are swapped out in tests.
var (
	isTerminal = term.IsTerminal
	windowSize = term.GetSize
	noColor    = termenv.EnvNoColor
)

// terminalFd returns the descriptor behind out when it is a terminal.
func terminalFd(out io.Writer) (int, bool) {
	file, ok := out.(interface{ Fd() uintptr })
	if !ok {
		return 0, false
	}
	fd := int(file.Fd())
	return fd, isTerminal(fd)
}

// ShouldColorize is true for terminals unless NO_COLOR is set.
func ShouldColorize(out io.Writer) bool {
	_, tty := terminalFd(out)
	return tty && !noColor()
}

// TerminalWidth is 0 when out is not a terminal.
func TerminalWidth(out io.Writer) int {
	fd, tty := terminalFd(out)
	if !tty {
		return 0
	}
	if width, _, err := windowSize(fd); err == nil {
		return width
	}
	return 0
}
