package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Bright ANSI colors follow the user's terminal theme, the rest match the banner.
var (
	textColor    = lipgloss.ANSIColor(termenv.ANSIBrightWhite)
	mossColor    = lipgloss.Color("#8DB25E")
	clayColor    = lipgloss.Color("#D9915B")
	mutedColor   = lipgloss.Color("#7A7468")
	rustColor    = lipgloss.Color("#D2483C")
	warningColor = lipgloss.ANSIColor(termenv.ANSIBrightYellow)
)

var (
	TitleStyle = lipgloss.NewStyle().Foreground(textColor)

	QuestionStyle = lipgloss.NewStyle().Foreground(mossColor).Bold(true)

	ItemStyle = lipgloss.NewStyle().Foreground(textColor).PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().Foreground(clayColor).Bold(true)

	DescriptionStyle = lipgloss.NewStyle().Foreground(mutedColor)

	PlaceholderStyle = DescriptionStyle.PaddingLeft(1)

	PaginationStyle = list.DefaultStyles().PaginationStyle.PaddingLeft(2)

	HelpStyle = list.DefaultStyles().HelpStyle.PaddingLeft(2).PaddingBottom(1)

	ErrorStyle = lipgloss.NewStyle().Foreground(rustColor).Bold(true)

	WarningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)

	InfoStyle = lipgloss.NewStyle().Foreground(clayColor)
)
