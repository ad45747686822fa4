package ui

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/five82/waypoint/internal/editor"
	"github.com/five82/waypoint/internal/geo"
)

var featureGlyphs = map[editor.Style]rune{
	editor.StyleDefault:  '•',
	editor.StyleHover:    '◆',
	editor.StyleSelected: '█',
}

const gridGlyph = '·'

type canvasCell struct {
	glyph rune
	style editor.Style
	set   bool
}

// drawOrder puts selected features on top of hovered ones, and hovered on
// top of the rest.
var drawOrder = []editor.Style{editor.StyleDefault, editor.StyleHover, editor.StyleSelected}

// renderCanvas draws the overlay into a width x height block of text.
func (m Model) renderCanvas(width, height int) string {
	styles := m.theme.Styles()
	if width <= 0 || height <= 0 {
		return ""
	}
	if !m.scr.hasView || len(m.scr.overlay) == 0 {
		msg := "No features on this page"
		if m.engine.State().Loading {
			msg = "Loading features..."
		}
		return styles.FaintText.Render(padRight(truncate(msg, width), width)) +
			strings.Repeat("\n", max(height-1, 0))
	}

	grid := make([][]canvasCell, height)
	for y := range grid {
		grid[y] = make([]canvasCell, width)
	}
	proj := geo.Projector{View: m.scr.viewport, Width: width, Height: height}

	for _, layer := range drawOrder {
		for _, f := range m.scr.overlay {
			if m.scr.styles[f.ID] != layer || f.Geometry == nil {
				continue
			}
			for _, c := range proj.Rasterize(f.Geometry) {
				grid[c.Y][c.X] = canvasCell{glyph: featureGlyphs[layer], style: layer, set: true}
			}
		}
	}

	gridStyle := styles.GridStyle()
	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		// Render runs of identical cells in one style call.
		start := 0
		for x := 1; x <= width; x++ {
			if x < width && row[x] == row[start] {
				continue
			}
			run := x - start
			cell := row[start]
			if cell.set {
				b.WriteString(styles.FeatureStyle(cell.style).Render(strings.Repeat(string(cell.glyph), run)))
			} else {
				b.WriteString(gridStyle.Render(gridRun(start, y, run)))
			}
			start = x
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// gridRun draws a sparse dot grid so empty canvas still shows scale.
func gridRun(x0, y, n int) string {
	var b strings.Builder
	for x := x0; x < x0+n; x++ {
		if y%4 == 0 && x%8 == 0 {
			b.WriteRune(gridGlyph)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// boundLabel summarizes the visible extent for the map panel title.
func boundLabel(b orb.Bound) string {
	return fmt.Sprintf("%.3f,%.3f → %.3f,%.3f", b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
}
