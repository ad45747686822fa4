package ui

// Panel sizing.
const (
	// ListPanelWidth is the width of the list panel on normal terminals.
	ListPanelWidth = 38

	// ListPanelMinWidth is the narrowest the list panel gets.
	ListPanelMinWidth = 24

	// LayoutCompactWidth is the threshold below which the list takes a third.
	LayoutCompactWidth = 100

	// FormHeight is the height of the edit form panel including borders.
	FormHeight = 14

	// ListItemHeight is the number of lines one list card uses.
	ListItemHeight = 2
)

// Map display.
const (
	// MapMinSpan pads single-point pages so the canvas has some extent.
	MapMinSpan = 0.01

	// MapFitPadding enlarges fitted bounds so shapes do not touch the border.
	MapFitPadding = 1.1

	// MapZoomStep scales the viewport per zoom key press.
	MapZoomStep = 1.5
)

// Log display limits.
const (
	// LogModalLines is the number of log lines shown in the activity modal.
	LogModalLines = 300
)
