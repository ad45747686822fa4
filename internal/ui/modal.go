package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/waypoint/internal/editor"
	"github.com/five82/waypoint/internal/logtail"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// noticeModal blocks input until a failed save or delete has been acknowledged.
type noticeModal struct {
	title string
	err   error
}

func newNoticeModal(err error) noticeModal {
	return noticeModal{title: failureTitle(err), err: err}
}

func failureTitle(err error) string {
	var merr *editor.MutationError
	if errors.As(err, &merr) && merr.Kind == editor.MutationDelete {
		return "Delete failed"
	}
	return "Save failed"
}

func (n noticeModal) Update(msg tea.Msg, _ keyMap) (Modal, tea.Cmd, bool) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return n, nil, true
	}
	return n, nil, false
}

func (n noticeModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	modalWidth := min(max(width-10, 20), 60)

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(n.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Width(modalWidth - 6).Render(fmt.Sprint(n.err)))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Press any key to continue. Your edits are kept."))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// logModal shows the tail of the editor's own log file.
type logModal struct {
	path     string
	viewport viewport.Model
	err      error
	count    int
}

func newLogModal(path string, width, height int) logModal {
	vp := viewport.New(max(width-8, 20), max(height-8, 5))
	return logModal{path: path, viewport: vp}
}

// load replaces the content with the formatted lines and scrolls to the end.
func (l logModal) load(lines []string, err error) logModal {
	l.err = err
	l.count = len(lines)
	formatted := logtail.FormatLines(lines)
	if len(formatted) == 0 {
		formatted = []string{"No log entries yet."}
	}
	l.viewport.SetContent(strings.Join(formatted, "\n"))
	l.viewport.GotoBottom()
	return l
}

func (l logModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Escape), key.Matches(keyMsg, keys.ShowLog), key.Matches(keyMsg, keys.Close):
		return l, nil, true
	case key.Matches(keyMsg, keys.Top):
		l.viewport.GotoTop()
		return l, nil, false
	case key.Matches(keyMsg, keys.Bottom):
		l.viewport.GotoBottom()
		return l, nil, false
	}
	var cmd tea.Cmd
	l.viewport, cmd = l.viewport.Update(msg)
	return l, cmd, false
}

func (l logModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Activity log"))
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("  %s (%d lines)", l.path, l.count)))
	b.WriteString("\n")
	if l.err != nil {
		b.WriteString(styles.DangerText.Render(l.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(l.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("j/k scroll · g/G top/bottom · esc close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(0, 1)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
