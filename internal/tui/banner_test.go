package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestBannerText(t *testing.T) {
	assert.Equal(t, " i18ntypes | v1.2.3 ", BannerText(BannerConfig{App: "i18ntypes", Version: "1.2.3"}))
	assert.Equal(t, " i18ntypes | v1.2.3 | watching locales ",
		BannerText(BannerConfig{App: "i18ntypes", Version: "1.2.3", Extras: []string{"watching locales"}}))
}

func TestBannerKeepsTheWholeText(t *testing.T) {
	cfg := BannerConfig{App: "i18ntypes", Version: "1.2.3"}

	for _, width := range []int{0, 3, 20, 80} {
		banner := stripped(Banner(cfg, width))
		assert.Contains(t, banner, "i18ntypes", width)
		assert.Equal(t, max(width, len(BannerText(cfg))), lipgloss.Width(Banner(cfg, width)), width)
	}
}

func stripped(styled string) string {
	out := make([]rune, 0, len(styled))
	inEscape := false
	for _, char := range styled {
		switch {
		case char == '\x1b':
			inEscape = true
		case inEscape && char == 'm':
			inEscape = false
		case !inEscape:
			out = append(out, char)
		}
	}
	return string(out)
}
