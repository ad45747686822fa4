package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders header and footer segments on one background color.
// lipgloss resets attributes at the end of every rendered string, so plain
// spaces between segments would show the terminal background; every gap is
// rendered through the bar style instead.
type BgStyle struct {
	bar lipgloss.Style
}

// NewBgStyle returns a BgStyle for the given background color.
func NewBgStyle(color string) BgStyle {
	return BgStyle{bar: lipgloss.NewStyle().Background(lipgloss.Color(color))}
}

// Render applies style to each word of text on the bar background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(b.bar.GetBackground())
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.Space())
}

// Space returns one space on the bar background.
func (b BgStyle) Space() string {
	return b.bar.Render(" ")
}

// Join concatenates segments with sep rendered on the bar background.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.bar.Render(sep))
}
