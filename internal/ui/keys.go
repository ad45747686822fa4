package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	ShowLog    key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Close      key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// List actions
	Select     key.Binding
	Search     key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Reload     key.Binding
	NewFeature key.Binding
	Delete     key.Binding

	// Map actions
	ZoomIn  key.Binding
	ZoomOut key.Binding
	ZoomFit key.Binding

	// Form actions
	Submit     key.Binding
	FormDelete key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ShowLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Activity log"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next panel / field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous panel / field"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		Close: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "Close"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		// List actions
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Edit feature"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search list"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "]"),
			key.WithHelp("n/]", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "["),
			key.WithHelp("p/[", "Previous page"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload page"),
		),
		NewFeature: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "New feature"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete feature"),
		),

		// Map actions
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Zoom out"),
		),
		ZoomFit: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "Fit page"),
		),

		// Form actions
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		FormDelete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Delete"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Select, k.Search, k.NextPage, k.PrevPage, k.Reload, k.NewFeature, k.Delete},
		{k.ZoomIn, k.ZoomOut, k.ZoomFit},
		{k.Submit, k.FormDelete},
		{k.ShowLog, k.CycleTheme, k.Help, k.Quit},
	}
}
