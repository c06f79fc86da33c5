package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Banner is the one-line strip drawn above interactive screens.
type Banner struct {
	App     string
	Version string
}

func (banner Banner) text() string {
	parts := []string{banner.App}
	if banner.Version != "" {
		parts = append(parts, "v"+strings.TrimPrefix(banner.Version, "v"))
	}
	return " " + strings.Join(parts, " · ")
}

// bannerColors runs from clay to moss, light enough for dark text throughout.
var bannerColors = []lipgloss.Color{"#E8C39E", "#D9C59A", "#C9C795", "#B8C68F", "#A7C48A"}

// RenderBanner paints the banner exactly width cells wide, truncating the text when it does not fit.
func RenderBanner(banner Banner, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(banner.text())
	var out strings.Builder
	for col := 0; col < width; col++ {
		glyph := " "
		if col < len(runes) {
			glyph = string(runes[col])
		}
		out.WriteString(lipgloss.NewStyle().
			Background(bannerColors[col*len(bannerColors)/width]).
			Foreground(lipgloss.Color("#1E1E1E")).
			Bold(true).
			Render(glyph))
	}
	return out.String()
}
