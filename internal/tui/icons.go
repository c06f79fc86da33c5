// Package tui holds the terminal pieces shared by the vsmm commands: terminal
// detection, styles, status icons, key bindings and the selector and confirm screens.
package tui

import "github.com/charmbracelet/lipgloss"

// statusIcon is a glyph that prefixes a per-mod or per-step status line.
type statusIcon struct {
	glyph string
	style lipgloss.Style
}

func (icon statusIcon) render(colorize bool) string {
	if !colorize {
		return icon.glyph
	}
	return icon.style.Render(icon.glyph)
}

var (
	successIcon = statusIcon{glyph: "✔", style: QuestionStyle}
	errorIcon   = statusIcon{glyph: "✖", style: ErrorStyle}
	warningIcon = statusIcon{glyph: "▲", style: WarningStyle}
	infoIcon    = statusIcon{glyph: "●", style: InfoStyle}
)

func SuccessIcon(colorize bool) string { return successIcon.render(colorize) }

func ErrorIcon(colorize bool) string { return errorIcon.render(colorize) }

func WarningIcon(colorize bool) string { return warningIcon.render(colorize) }

func InfoIcon(colorize bool) string { return infoIcon.render(colorize) }
