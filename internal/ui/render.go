package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/waypoint/internal/editor"
	"github.com/five82/waypoint/internal/features"
)

// renderMain renders the header, the three panels and the footer.
func (m Model) renderMain() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 6)

	listWidth, rightWidth := m.columnWidths()
	mapHeight := max(bodyHeight-FormHeight, 5)
	formHeight := bodyHeight - mapHeight

	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderMapPanel(rightWidth, mapHeight),
		m.renderFormPanel(rightWidth, formHeight),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderListPanel(listWidth, bodyHeight),
		right,
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// columnWidths splits the terminal between the list and the map/form column.
func (m Model) columnWidths() (int, int) {
	list := m.listWidth()
	return list, max(m.width-list, 20)
}

func (m Model) listWidth() int {
	if m.width < LayoutCompactWidth {
		return max(m.width/3, ListPanelMinWidth)
	}
	return ListPanelWidth
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	st := m.engine.State()

	parts := []string{
		bg.Render("waypoint", styles.Logo),
		bg.Render(truncate(m.apiURL, 40), styles.MutedText),
		bg.Render("Page:", styles.MutedText) + bg.Space() +
			bg.Render(itoa(st.CurrentPage+1), styles.Text),
	}
	if st.Query != "" {
		parts = append(parts, bg.Render("Filter:", styles.MutedText)+bg.Space()+
			bg.Render(truncate(st.Query, 20), styles.AccentText))
	}

	switch {
	case st.Loading || st.Mutating:
		parts = append(parts, bg.Render(m.spinner.View(), styles.WarningText)+bg.Space()+
			bg.Render(activity(st.Mutating), styles.WarningText))
	case st.LastError != nil:
		parts = append(parts, bg.Render("● Offline", styles.DangerText))
	default:
		parts = append(parts, bg.Render("● Synced", styles.SuccessText))
	}
	if m.status != "" {
		parts = append(parts, bg.Render(truncate(m.status, 40), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderFooter renders the key hints for the focused panel.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	var bindings []key.Binding
	switch {
	case m.searching:
		bindings = []key.Binding{
			key.NewBinding(key.WithHelp("enter", "Keep filter")),
			key.NewBinding(key.WithHelp("esc", "Clear filter")),
		}
	case m.focus == FocusForm:
		bindings = []key.Binding{m.keys.Tab, m.keys.Submit, m.keys.FormDelete, m.keys.Escape}
	case m.focus == FocusMap:
		bindings = []key.Binding{m.keys.Down, m.keys.Select, m.keys.ZoomIn, m.keys.ZoomOut, m.keys.ZoomFit, m.keys.Tab}
	default:
		bindings = []key.Binding{m.keys.Select, m.keys.Search, m.keys.NextPage, m.keys.PrevPage, m.keys.NewFeature, m.keys.Delete, m.keys.Tab}
	}
	bindings = append(bindings, m.keys.Help)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, bg.Render(h.Key, styles.AccentText)+bg.Space()+bg.Render(h.Desc, styles.MutedText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderListPanel renders the page of records with the search prompt.
func (m Model) renderListPanel(width, height int) string {
	styles := m.theme.Styles()
	inner := max(width-4, 4)
	innerHeight := max(height-2, 1)

	var lines []string
	title := styles.Text.Bold(true).Render("Features")
	lines = append(lines, title)
	if m.scr.listErr != nil {
		wrapped := styles.DangerText.Width(inner).Render(listErrorText(m.scr.listErr))
		lines = append(lines, strings.Split(wrapped, "\n")...)
	}
	if m.searching || m.engine.State().Query != "" {
		lines = append(lines, m.search.View())
	}
	lines = append(lines, "")

	items := m.scr.visibleItems()
	if len(items) == 0 {
		msg := "No features"
		if m.engine.State().Query != "" {
			msg = "No matches"
		}
		lines = append(lines, styles.FaintText.Render(msg))
	} else {
		slots := max((innerHeight-len(lines))/ListItemHeight, 1)
		offset := m.listScroll(len(items), slots)
		selected := m.engine.State().Selection.ID()
		for i := offset; i < len(items) && i < offset+slots; i++ {
			lines = append(lines, m.renderListItem(items[i], i == m.listCursor, items[i].ID == selected, inner)...)
		}
	}

	panel := styles.Panel(m.focus == FocusList, width, height)
	return panel.Render(strings.Join(lines, "\n"))
}

// listScroll keeps the cursor inside the visible window.
func (m Model) listScroll(count, slots int) int {
	offset := m.listOffset
	if m.listCursor < offset {
		offset = m.listCursor
	}
	if m.listCursor >= offset+slots {
		offset = m.listCursor - slots + 1
	}
	return max(min(offset, count-slots), 0)
}

func (m Model) renderListItem(item editor.ListItem, cursor, selected bool, width int) []string {
	styles := m.theme.Styles()
	mark := "  "
	if selected {
		mark = "● "
	}
	name := truncate(mark+item.Record.Name, width)
	desc := "  " + truncate(firstLine(item.Record.DisplayDescription()), width-2)

	if cursor && m.focus == FocusList {
		return []string{
			styles.Selected.Render(padRight(name, width)),
			styles.Selected.Render(padRight(desc, width)),
		}
	}
	nameStyle := styles.Text
	if selected {
		nameStyle = styles.SuccessText
	}
	return []string{nameStyle.Render(name), styles.FaintText.Render(desc)}
}

// renderMapPanel renders the overlay canvas and the hovered feature.
func (m Model) renderMapPanel(width, height int) string {
	styles := m.theme.Styles()
	inner := max(width-4, 4)
	innerHeight := max(height-2, 3)

	title := styles.Text.Bold(true).Render("Map")
	if m.scr.hasView {
		title += "  " + styles.FaintText.Render(boundLabel(m.scr.viewport))
	}

	info := styles.FaintText.Render(pluralize(len(m.scr.overlay), "feature", "features"))
	if hovered := m.hoveredFeature(); hovered != nil {
		info = styles.WarningText.Render(truncate(hovered.Name+" · "+hovered.Description, inner))
	}

	canvas := m.renderCanvas(inner, max(innerHeight-2, 1))
	panel := styles.Panel(m.focus == FocusMap, width, height)
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, canvas, info))
}

// renderFormPanel renders the edit form.
func (m Model) renderFormPanel(width, height int) string {
	styles := m.theme.Styles()
	f := m.scr.form
	labelStyle := styles.MutedText.Width(13)
	focused := m.focus == FocusForm

	label := func(text string, field int) string {
		if focused && f.focused == field {
			return styles.AccentText.Bold(true).Width(13).Render(text)
		}
		return labelStyle.Render(text)
	}

	title := "New feature"
	if sel, ok := m.engine.State().Selection.Record(); ok {
		title = "Editing " + sel.Name + " (#" + sel.ID.String() + ")"
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(truncate(title, max(width-4, 4))))
	b.WriteString("\n")
	b.WriteString(label("Name", fieldName) + f.name.View())
	b.WriteString("\n")
	b.WriteString(label("Description", fieldDescription) + f.description.View())
	b.WriteString("\n")
	b.WriteString(label("Geometry", fieldGeometry))
	b.WriteString("\n")
	b.WriteString(f.geometry.View())
	b.WriteString("\n")

	hints := []string{"ctrl+s save"}
	if m.scr.deleteVisible {
		hints = append(hints, "ctrl+d delete")
	}
	hints = append(hints, "esc cancel")
	b.WriteString(styles.FaintText.Render(strings.Join(hints, " · ")))
	if f.status != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(truncate(f.status, max(width-4, 4))))
	}

	panel := styles.Panel(focused, width, height)
	return panel.Render(b.String())
}

// matches reports whether msg triggers binding.
func matches(msg tea.KeyMsg, binding key.Binding) bool {
	return key.Matches(msg, binding)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// listErrorText puts the status and server detail of a failed load first so
// they survive wrapping in the narrow list panel.
func listErrorText(err error) string {
	var apiErr *features.APIError
	if errors.As(err, &apiErr) {
		text := "Error: status " + itoa(apiErr.Status)
		if apiErr.Detail != "" {
			text += "\n" + firstLine(apiErr.Detail)
		}
		return text
	}
	return "Error: " + firstLine(err.Error())
}

func activity(mutating bool) string {
	if mutating {
		return "Saving"
	}
	return "Loading"
}

func savedLabel(kind editor.MutationKind) string {
	switch kind {
	case editor.MutationCreate:
		return "Feature created"
	case editor.MutationDelete:
		return "Feature deleted"
	default:
		return "Feature updated"
	}
}
