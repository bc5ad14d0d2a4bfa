// Package geo handles geometry data structures shared by the WKB and WKT codecs.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when a geometry cannot be constructed
// from the given parts.
var ErrInvalidGeometry = errors.New("invalid geometry")

// SRIDWGS84 is the GPS lat/lon reference system.
const SRIDWGS84 int32 = 4326

// Kind is the base geometry type. Values match the WKB type codes.
type Kind uint32

const (
	KindPoint           Kind = 1
	KindLineString      Kind = 2
	KindPolygon         Kind = 3
	KindMultiPoint      Kind = 4
	KindMultiLineString Kind = 5
	KindMultiPolygon    Kind = 6
)

var kindNames = map[Kind]string{
	KindPoint:           "POINT",
	KindLineString:      "LINESTRING",
	KindPolygon:         "POLYGON",
	KindMultiPoint:      "MULTIPOINT",
	KindMultiLineString: "MULTILINESTRING",
	KindMultiPolygon:    "MULTIPOLYGON",
}

// String returns the upper-case WKT keyword of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Element returns the kind of the parts held by a multi geometry.
func (k Kind) Element() (Kind, bool) {
	switch k {
	case KindMultiPoint:
		return KindPoint, true
	case KindMultiLineString:
		return KindLineString, true
	case KindMultiPolygon:
		return KindPolygon, true
	}
	return 0, false
}

// Layout is the coordinate dimensionality.
type Layout uint8

const (
	XY Layout = iota
	XYZ
	XYM
	XYZM
)

// NewLayout returns the layout for the given Z and M flags.
func NewLayout(hasZ, hasM bool) Layout {
	switch {
	case hasZ && hasM:
		return XYZM
	case hasZ:
		return XYZ
	case hasM:
		return XYM
	}
	return XY
}

// Stride is the number of ordinates per coordinate.
func (l Layout) Stride() int {
	switch l {
	case XYZ, XYM:
		return 3
	case XYZM:
		return 4
	}
	return 2
}

func (l Layout) HasZ() bool { return l == XYZ || l == XYZM }
func (l Layout) HasM() bool { return l == XYM || l == XYZM }

// Suffix is the WKT dimension qualifier, empty for XY.
func (l Layout) Suffix() string {
	switch l {
	case XYZ:
		return "Z"
	case XYM:
		return "M"
	case XYZM:
		return "ZM"
	}
	return ""
}

func (l Layout) String() string {
	return "XY" + l.Suffix()
}

// Coord is a single position. Its length equals the layout stride.
type Coord []float64

// Equal compares ordinates exactly. NaN ordinates never match.
func (c Coord) Equal(o Coord) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// IsNaN reports whether every ordinate is NaN, which is how WKB spells an
// empty point.
func (c Coord) IsNaN() bool {
	if len(c) == 0 {
		return false
	}
	for _, v := range c {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Geometry is an immutable geometry value. The zero value is not valid;
// use one of the constructors.
type Geometry struct {
	kind    Kind
	layout  Layout
	srid    int32
	hasSRID bool

	coords []Coord    // Point (0 or 1), LineString
	rings  [][]Coord  // Polygon
	parts  []Geometry // Multi*
}

// Kind returns the base type.
func (g Geometry) Kind() Kind { return g.kind }

// Layout returns the coordinate dimensionality.
func (g Geometry) Layout() Layout { return g.layout }

// SRID returns the spatial reference identifier, if one was attached.
func (g Geometry) SRID() (int32, bool) { return g.srid, g.hasSRID }

// WithSRID returns a copy of g tagged with srid.
func (g Geometry) WithSRID(srid int32) Geometry {
	g.srid = srid
	g.hasSRID = true
	return g
}

// WithoutSRID returns a copy of g with no SRID attached.
func (g Geometry) WithoutSRID() Geometry {
	g.srid = 0
	g.hasSRID = false
	return g
}

// Empty reports whether the geometry holds no coordinates, rings or parts.
// A multi geometry whose parts are all empty is not itself empty.
func (g Geometry) Empty() bool {
	return len(g.coords) == 0 && len(g.rings) == 0 && len(g.parts) == 0
}

// NumCoords counts all coordinates, including nested parts.
func (g Geometry) NumCoords() int {
	n := len(g.coords)
	for _, r := range g.rings {
		n += len(r)
	}
	for _, p := range g.parts {
		n += p.NumCoords()
	}
	return n
}

// Coords returns the coordinates of a Point or LineString.
func (g Geometry) Coords() []Coord {
	return copyCoords(g.coords)
}

// Rings returns the rings of a Polygon, outer ring first.
func (g Geometry) Rings() [][]Coord {
	out := make([][]Coord, len(g.rings))
	for i, r := range g.rings {
		out[i] = copyCoords(r)
	}
	return out
}

// Parts returns the elements of a multi geometry.
func (g Geometry) Parts() []Geometry {
	out := make([]Geometry, len(g.parts))
	copy(out, g.parts)
	return out
}

// NumParts returns the number of elements of a multi geometry.
func (g Geometry) NumParts() int { return len(g.parts) }

// NumRings returns the number of rings of a Polygon.
func (g Geometry) NumRings() int { return len(g.rings) }

// NewEmptyPoint returns a point with no coordinate.
func NewEmptyPoint(layout Layout) Geometry {
	return Geometry{kind: KindPoint, layout: layout}
}

// NewPoint returns a point at c. An all-NaN coordinate yields an empty point.
func NewPoint(layout Layout, c Coord) (Geometry, error) {
	if err := checkCoord(layout, c); err != nil {
		return Geometry{}, fmt.Errorf("point: %w", err)
	}
	if c.IsNaN() {
		return NewEmptyPoint(layout), nil
	}
	return Geometry{kind: KindPoint, layout: layout, coords: []Coord{cloneCoord(c)}}, nil
}

// NewLineString returns a line through coords. A line string is either
// empty or has at least two coordinates.
func NewLineString(layout Layout, coords ...Coord) (Geometry, error) {
	if len(coords) == 1 {
		return Geometry{}, fmt.Errorf("linestring: %w: need 0 or at least 2 coordinates, got 1", ErrInvalidGeometry)
	}
	for i, c := range coords {
		if err := checkCoord(layout, c); err != nil {
			return Geometry{}, fmt.Errorf("linestring coordinate %d: %w", i, err)
		}
	}
	return Geometry{kind: KindLineString, layout: layout, coords: copyCoords(coords)}, nil
}

// NewPolygon returns a polygon from rings, the first being the shell and
// the rest holes. Each ring must be closed and hold at least four
// coordinates.
func NewPolygon(layout Layout, rings ...[]Coord) (Geometry, error) {
	g := Geometry{kind: KindPolygon, layout: layout}
	for i, r := range rings {
		if len(r) < 4 {
			return Geometry{}, fmt.Errorf("polygon ring %d: %w: need at least 4 coordinates, got %d", i, ErrInvalidGeometry, len(r))
		}
		for j, c := range r {
			if err := checkCoord(layout, c); err != nil {
				return Geometry{}, fmt.Errorf("polygon ring %d coordinate %d: %w", i, j, err)
			}
		}
		if !r[0].Equal(r[len(r)-1]) {
			return Geometry{}, fmt.Errorf("polygon ring %d: %w: ring is not closed", i, ErrInvalidGeometry)
		}
		g.rings = append(g.rings, copyCoords(r))
	}
	return g, nil
}

// NewMultiPoint returns a multi point from point geometries.
func NewMultiPoint(layout Layout, points ...Geometry) (Geometry, error) {
	return newMulti(KindMultiPoint, layout, points)
}

// NewMultiLineString returns a multi line string from line string geometries.
func NewMultiLineString(layout Layout, lines ...Geometry) (Geometry, error) {
	return newMulti(KindMultiLineString, layout, lines)
}

// NewMultiPolygon returns a multi polygon from polygon geometries.
func NewMultiPolygon(layout Layout, polygons ...Geometry) (Geometry, error) {
	return newMulti(KindMultiPolygon, layout, polygons)
}

// NewMulti builds a multi geometry of the given kind.
func NewMulti(kind Kind, layout Layout, parts ...Geometry) (Geometry, error) {
	return newMulti(kind, layout, parts)
}

func newMulti(kind Kind, layout Layout, parts []Geometry) (Geometry, error) {
	elem, ok := kind.Element()
	if !ok {
		return Geometry{}, fmt.Errorf("%w: %s is not a multi geometry", ErrInvalidGeometry, kind)
	}
	g := Geometry{kind: kind, layout: layout, parts: make([]Geometry, 0, len(parts))}
	for i, p := range parts {
		if p.kind != elem {
			return Geometry{}, fmt.Errorf("%s part %d: %w: expected %s, got %s", kind, i, ErrInvalidGeometry, elem, p.kind)
		}
		if p.layout != layout {
			return Geometry{}, fmt.Errorf("%s part %d: %w: layout %s does not match %s", kind, i, ErrInvalidGeometry, p.layout, layout)
		}
		g.parts = append(g.parts, p.WithoutSRID())
	}
	return g, nil
}

func checkCoord(layout Layout, c Coord) error {
	if len(c) != layout.Stride() {
		return fmt.Errorf("%w: %s coordinate needs %d ordinates, got %d", ErrInvalidGeometry, layout, layout.Stride(), len(c))
	}
	return nil
}

func cloneCoord(c Coord) Coord {
	out := make(Coord, len(c))
	copy(out, c)
	return out
}

func copyCoords(in []Coord) []Coord {
	if in == nil {
		return nil
	}
	out := make([]Coord, len(in))
	for i, c := range in {
		out[i] = cloneCoord(c)
	}
	return out
}
