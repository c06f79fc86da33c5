package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var isTerminalFunc = term.IsTerminal

// SetIsTerminalFuncForTesting swaps terminal detection for tests in other packages and returns the restore func.
func SetIsTerminalFuncForTesting(fn func(int) bool) func() {
	previous := isTerminalFunc
	isTerminalFunc = fn
	return func() {
		isTerminalFunc = previous
	}
}

// onTerminal reports whether stream is backed by a file descriptor attached to a terminal.
func onTerminal(stream any) bool {
	file, ok := stream.(interface{ Fd() uintptr })
	return ok && isTerminalFunc(int(file.Fd()))
}

// ShouldUseTUI is true when neither --quiet nor redirected input or output rule out an interactive screen.
func ShouldUseTUI(quiet bool, in io.Reader, out io.Writer) bool {
	return !quiet && onTerminal(in) && onTerminal(out)
}

func IsTerminalWriter(writer io.Writer) bool {
	return onTerminal(writer)
}

// ShouldColorize is true for terminal output unless NO_COLOR is set to anything.
func ShouldColorize(writer io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return onTerminal(writer)
}

// ProgramOptions wires a Bubble Tea program to in and out, rendering only when both are terminals.
func ProgramOptions(in io.Reader, out io.Writer) []tea.ProgramOption {
	options := []tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out)}
	if !onTerminal(in) || !onTerminal(out) {
		options = append(options, tea.WithoutRenderer())
	}
	return options
}
