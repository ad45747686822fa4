package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{title: "Panels", bindings: []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Bottom}},
		{title: "List", bindings: []key.Binding{m.keys.Select, m.keys.Search, m.keys.NextPage, m.keys.PrevPage, m.keys.Reload, m.keys.NewFeature, m.keys.Delete}},
		{title: "Map", bindings: []key.Binding{m.keys.Select, m.keys.ZoomIn, m.keys.ZoomOut, m.keys.ZoomFit}},
		{title: "Form", bindings: []key.Binding{m.keys.Submit, m.keys.FormDelete, m.keys.Escape}},
		{title: "General", bindings: []key.Binding{m.keys.ShowLog, m.keys.CycleTheme, m.keys.Help, m.keys.Quit}},
	}

	var b strings.Builder

	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title    string
	bindings []key.Binding
}
