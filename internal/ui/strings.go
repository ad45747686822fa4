package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncate trims value and cuts it to limit cells, ending with "..." when cut.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || runewidth.StringWidth(value) <= limit {
		return value
	}
	if limit <= 3 {
		return runewidth.Truncate(value, limit, "")
	}
	return runewidth.Truncate(value, limit, "...")
}

// firstLine returns the first non-blank line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// padRight fills s with spaces up to width cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
