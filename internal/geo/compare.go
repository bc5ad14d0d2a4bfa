package geo

import "math"

// Bounds is an XY bounding box.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Bounds returns the XY extent of g. ok is false when g has no coordinates.
func (g Geometry) Bounds() (b Bounds, ok bool) {
	g.eachCoord(func(c Coord) {
		x, y := c[0], c[1]
		if !ok {
			b = Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y}
			ok = true
			return
		}
		if x < b.MinX {
			b.MinX = x
		}
		if y < b.MinY {
			b.MinY = y
		}
		if x > b.MaxX {
			b.MaxX = x
		}
		if y > b.MaxY {
			b.MaxY = y
		}
	})
	return b, ok
}

func (g Geometry) eachCoord(fn func(Coord)) {
	for _, c := range g.coords {
		fn(c)
	}
	for _, r := range g.rings {
		for _, c := range r {
			fn(c)
		}
	}
	for _, p := range g.parts {
		p.eachCoord(fn)
	}
}

// Equal reports whether a and b have the same kind, layout, SRID and
// ordinates. Unlike Coord.Equal, NaN ordinates compare equal here.
func Equal(a, b Geometry) bool {
	if a.srid != b.srid || a.hasSRID != b.hasSRID {
		return false
	}
	return equalShape(a, b)
}

// EqualShape is Equal without the SRID comparison.
func EqualShape(a, b Geometry) bool {
	return equalShape(a, b)
}

func equalShape(a, b Geometry) bool {
	if a.kind != b.kind || a.layout != b.layout {
		return false
	}
	if !equalCoords(a.coords, b.coords) {
		return false
	}
	if len(a.rings) != len(b.rings) {
		return false
	}
	for i := range a.rings {
		if !equalCoords(a.rings[i], b.rings[i]) {
			return false
		}
	}
	if len(a.parts) != len(b.parts) {
		return false
	}
	for i := range a.parts {
		if !equalShape(a.parts[i], b.parts[i]) {
			return false
		}
	}
	return true
}

func equalCoords(a, b []Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			x, y := a[i][j], b[i][j]
			if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
				return false
			}
		}
	}
	return true
}
