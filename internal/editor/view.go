package editor

import (
	"strings"

	"github.com/paulmach/orb"

	"github.com/five82/waypoint/internal/features"
)

// Style is the visual state of an overlay feature.
type Style int

const (
	StyleDefault Style = iota
	StyleHover
	StyleSelected
)

func (s Style) String() string {
	switch s {
	case StyleHover:
		return "hover"
	case StyleSelected:
		return "selected"
	default:
		return "default"
	}
}

// Draft is the unsaved contents of the edit form.
type Draft struct {
	Name         string
	Description  string
	GeometryText string
}

// IsEmpty reports whether every field is blank.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// ListItem is one card of the list panel.
type ListItem struct {
	ID     features.ID
	Record features.Record

	// OnClick selects the record.
	OnClick func() error
}

// Text is what the search filter matches against.
func (i ListItem) Text() string {
	return i.Record.Name + " " + i.Record.DisplayDescription()
}

// OverlayFeature is one shape on the map overlay.
type OverlayFeature struct {
	ID          features.ID
	Name        string
	Description string
	Geometry    orb.Geometry

	OnHoverIn  func()
	OnHoverOut func()
	OnClick    func() error
}

// View is the rendering surface driven by the Engine. Implementations must
// not call back into the Engine synchronously from these methods.
type View interface {
	// RenderList replaces the list panel. Every item starts visible.
	RenderList(items []ListItem)
	// RenderListError shows an inline load error above the last list.
	RenderListError(err error)
	// RenderOverlay replaces every overlay feature. Every feature starts in
	// StyleDefault.
	RenderOverlay(overlay []OverlayFeature)
	FitBounds(b orb.Bound)
	SetFeatureStyle(id features.ID, style Style)
	SetItemVisible(id features.ID, visible bool)
	SetDraft(d Draft)
	SetDeleteVisible(visible bool)
	// Notify reports a failed mutation. It blocks further input until the
	// operator dismisses it.
	Notify(err error)
}

func matchesQuery(item ListItem, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Text()), strings.ToLower(query))
}
