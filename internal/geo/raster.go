package geo

import (
	"github.com/paulmach/orb"
)

// Cell is a character cell on a terminal canvas.
type Cell struct {
	X int
	Y int
}

// Projector maps lon/lat points onto a width x height character grid using an
// equirectangular projection of View. Row zero is the north edge.
type Projector struct {
	View   orb.Bound
	Width  int
	Height int
}

// Project returns the cell for p. ok is false when p falls outside the view.
func (p Projector) Project(pt orb.Point) (Cell, bool) {
	if p.Width <= 0 || p.Height <= 0 {
		return Cell{}, false
	}
	spanX := p.View.Max.X() - p.View.Min.X()
	spanY := p.View.Max.Y() - p.View.Min.Y()
	if spanX <= 0 || spanY <= 0 {
		return Cell{}, false
	}
	fx := (pt.X() - p.View.Min.X()) / spanX
	fy := (p.View.Max.Y() - pt.Y()) / spanY
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return Cell{}, false
	}
	x := int(fx * float64(p.Width-1))
	y := int(fy * float64(p.Height-1))
	return Cell{X: x, Y: y}, true
}

// Rasterize returns the cells covered by g: vertices for points, and line
// segments between consecutive vertices for lines and polygon rings.
// Segments leaving the view are clipped cell by cell.
func (p Projector) Rasterize(g orb.Geometry) []Cell {
	var out []Cell
	p.rasterize(g, &out)
	return out
}

func (p Projector) rasterize(g orb.Geometry, out *[]Cell) {
	switch v := g.(type) {
	case nil:
	case orb.Point:
		if c, ok := p.Project(v); ok {
			*out = append(*out, c)
		}
	case orb.MultiPoint:
		for _, pt := range v {
			p.rasterize(pt, out)
		}
	case orb.LineString:
		p.path(v, false, out)
	case orb.MultiLineString:
		for _, ls := range v {
			p.path(ls, false, out)
		}
	case orb.Ring:
		p.path(v, true, out)
	case orb.Polygon:
		for _, r := range v {
			p.path(r, true, out)
		}
	case orb.MultiPolygon:
		for _, poly := range v {
			p.rasterize(poly, out)
		}
	case orb.Collection:
		for _, sub := range v {
			p.rasterize(sub, out)
		}
	case orb.Bound:
		p.rasterize(v.ToRing(), out)
	}
}

func (p Projector) path(points []orb.Point, closed bool, out *[]Cell) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		p.rasterize(points[0], out)
		return
	}
	for i := 1; i < len(points); i++ {
		p.segment(points[i-1], points[i], out)
	}
	if closed && points[0] != points[len(points)-1] {
		p.segment(points[len(points)-1], points[0], out)
	}
}

// segment walks the line between a and b in unprojected grid space so that
// partially visible segments still draw their visible part.
func (p Projector) segment(a, b orb.Point, out *[]Cell) {
	ax, ay := p.grid(a)
	bx, by := p.grid(b)
	dx := absInt(bx - ax)
	dy := -absInt(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	e := dx + dy
	// Guard against absurd spans when a vertex is far outside the view.
	for steps := 0; steps < 4*(p.Width+p.Height)+dx-dy; steps++ {
		if ax >= 0 && ax < p.Width && ay >= 0 && ay < p.Height {
			*out = append(*out, Cell{X: ax, Y: ay})
		}
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
}

func (p Projector) grid(pt orb.Point) (int, int) {
	spanX := p.View.Max.X() - p.View.Min.X()
	spanY := p.View.Max.Y() - p.View.Min.Y()
	if spanX <= 0 || spanY <= 0 {
		return -1, -1
	}
	fx := (pt.X() - p.View.Min.X()) / spanX
	fy := (p.View.Max.Y() - pt.Y()) / spanY
	return clampGrid(fx * float64(p.Width-1)), clampGrid(fy * float64(p.Height-1))
}

// clampGrid keeps far-away vertices from overflowing int conversion.
func clampGrid(v float64) int {
	const limit = 1 << 20
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
