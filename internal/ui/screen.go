package ui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/paulmach/orb"

	"github.com/five82/waypoint/internal/editor"
	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/geo"
)

// Compile-time check that screen satisfies the engine's rendering contract.
var _ editor.View = (*screen)(nil)

// screen is the rendering state the engine drives. Model holds it by pointer
// so every copy of Model made by Bubble Tea sees the same panels.
type screen struct {
	items   []editor.ListItem
	visible map[features.ID]bool
	listErr error

	overlay  []editor.OverlayFeature
	styles   map[features.ID]editor.Style
	fitted   orb.Bound
	viewport orb.Bound
	hasView  bool

	form          form
	deleteVisible bool

	notices []error
}

// form holds the edit form inputs.
type form struct {
	name        textinput.Model
	description textinput.Model
	geometry    textarea.Model
	focused     int
	status      string
}

const (
	fieldName = iota
	fieldDescription
	fieldGeometry
	fieldCount
)

func newScreen() *screen {
	name := textinput.New()
	name.Placeholder = "Feature name"
	name.Prompt = ""
	name.CharLimit = 200

	desc := textinput.New()
	desc.Placeholder = "Optional description"
	desc.Prompt = ""
	desc.CharLimit = 1000

	geom := textarea.New()
	geom.Placeholder = `{"type": "Point", "coordinates": [77.59, 12.97]}`
	geom.ShowLineNumbers = false
	geom.CharLimit = 0
	geom.SetHeight(6)

	return &screen{
		visible: make(map[features.ID]bool),
		styles:  make(map[features.ID]editor.Style),
		form: form{
			name:        name,
			description: desc,
			geometry:    geom,
		},
	}
}

func (s *screen) RenderList(items []editor.ListItem) {
	s.items = items
	s.listErr = nil
	s.visible = make(map[features.ID]bool, len(items))
	for _, item := range items {
		s.visible[item.ID] = true
	}
}

func (s *screen) RenderListError(err error) {
	s.listErr = err
}

func (s *screen) RenderOverlay(overlay []editor.OverlayFeature) {
	s.overlay = overlay
	s.styles = make(map[features.ID]editor.Style, len(overlay))
	for _, f := range overlay {
		s.styles[f.ID] = editor.StyleDefault
	}
}

func (s *screen) FitBounds(b orb.Bound) {
	s.fitted = geo.Zoom(geo.Widen(b, MapMinSpan), MapFitPadding)
	s.viewport = s.fitted
	s.hasView = true
}

func (s *screen) SetFeatureStyle(id features.ID, style editor.Style) {
	s.styles[id] = style
}

func (s *screen) SetItemVisible(id features.ID, visible bool) {
	s.visible[id] = visible
}

func (s *screen) SetDraft(d editor.Draft) {
	s.form.name.SetValue(d.Name)
	s.form.description.SetValue(d.Description)
	s.form.geometry.SetValue(d.GeometryText)
	s.form.status = ""
}

func (s *screen) SetDeleteVisible(visible bool) {
	s.deleteVisible = visible
}

func (s *screen) Notify(err error) {
	s.notices = append(s.notices, err)
}

// draft reads the form inputs back into a Draft.
func (s *screen) draft() editor.Draft {
	return editor.Draft{
		Name:         s.form.name.Value(),
		Description:  s.form.description.Value(),
		GeometryText: s.form.geometry.Value(),
	}
}

// visibleItems returns the list items the search filter left visible.
func (s *screen) visibleItems() []editor.ListItem {
	out := make([]editor.ListItem, 0, len(s.items))
	for _, item := range s.items {
		if s.visible[item.ID] {
			out = append(out, item)
		}
	}
	return out
}

// popNotice returns the oldest pending notification, or nil.
func (s *screen) popNotice() error {
	if len(s.notices) == 0 {
		return nil
	}
	err := s.notices[0]
	s.notices = s.notices[1:]
	return err
}

func (s *screen) zoom(factor float64) {
	if !s.hasView {
		return
	}
	s.viewport = geo.Zoom(s.viewport, factor)
}

func (s *screen) resetZoom() {
	if !s.hasView {
		return
	}
	s.viewport = s.fitted
}

// focusField moves keyboard focus between form inputs.
func (f *form) focusField(i int) {
	f.focused = ((i % fieldCount) + fieldCount) % fieldCount
	f.name.Blur()
	f.description.Blur()
	f.geometry.Blur()
	switch f.focused {
	case fieldName:
		f.name.Focus()
	case fieldDescription:
		f.description.Focus()
	case fieldGeometry:
		f.geometry.Focus()
	}
}

func (f *form) blur() {
	f.name.Blur()
	f.description.Blur()
	f.geometry.Blur()
}
