package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type BannerConfig struct {
	App     string
	Version string
	Extras  []string
}

// gradient runs left to right. Every stop is light enough for black text.
var gradient = []lipgloss.Color{"#89DCEB", "#99C9F5", "#B0B0FF", "#C49FFF", "#DB8AFF"}

// BannerText is the banner without styling.
func BannerText(cfg BannerConfig) string {
	fields := append([]string{cfg.App, "v" + cfg.Version}, cfg.Extras...)
	return " " + strings.Join(fields, " | ") + " "
}

// Banner splits a row of width columns into one band per gradient stop and
// writes BannerText across it. The row grows when the text is wider.
func Banner(cfg BannerConfig, width int) string {
	text := []rune(BannerText(cfg))
	width = max(width, len(text))
	text = append(text, []rune(strings.Repeat(" ", width-len(text)))...)

	var row strings.Builder
	start := 0
	for band, color := range gradient {
		end := (band + 1) * width / len(gradient)
		if end <= start {
			continue
		}
		row.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(color).
			Render(string(text[start:end])))
		start = end
	}
	return row.String()
}
