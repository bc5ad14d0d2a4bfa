// Package geomconv converts between geo.Geometry and github.com/twpayne/go-geom
// values, so geometries can be handed to the go-geom encoders and back.
package geomconv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/woozymasta/wkbtext/internal/geo"
	"github.com/woozymasta/wkbtext/internal/wkb"
	"github.com/woozymasta/wkbtext/internal/wkt"
)

var (
	// ErrUnsupported is returned for geometries go-geom cannot represent or encode.
	ErrUnsupported = errors.New("geomconv: unsupported geometry")
	// ErrMismatch is returned by Verify when go-geom and wkb disagree.
	ErrMismatch = errors.New("geomconv: go-geom mismatch")
)

var toLayout = map[geo.Layout]geom.Layout{
	geo.XY:   geom.XY,
	geo.XYZ:  geom.XYZ,
	geo.XYM:  geom.XYM,
	geo.XYZM: geom.XYZM,
}

var fromLayout = map[geom.Layout]geo.Layout{
	geom.XY:   geo.XY,
	geom.XYZ:  geo.XYZ,
	geom.XYM:  geo.XYM,
	geom.XYZM: geo.XYZM,
}

// ToGeom converts g. The SRID, when present, is carried over.
func ToGeom(g geo.Geometry) (geom.T, error) {
	t, err := toGeom(g)
	if err != nil {
		return nil, err
	}
	srid, ok := g.SRID()
	if !ok {
		return t, nil
	}
	switch t := t.(type) {
	case *geom.Point:
		return t.SetSRID(int(srid)), nil
	case *geom.LineString:
		return t.SetSRID(int(srid)), nil
	case *geom.Polygon:
		return t.SetSRID(int(srid)), nil
	case *geom.MultiPoint:
		return t.SetSRID(int(srid)), nil
	case *geom.MultiLineString:
		return t.SetSRID(int(srid)), nil
	case *geom.MultiPolygon:
		return t.SetSRID(int(srid)), nil
	}
	return t, nil
}

func flatten(cs []geo.Coord) []float64 {
	var flat []float64
	for _, c := range cs {
		flat = append(flat, c...)
	}
	return flat
}

func toGeom(g geo.Geometry) (geom.T, error) {
	l, ok := toLayout[g.Layout()]
	if !ok {
		return nil, fmt.Errorf("%w: layout %s", ErrUnsupported, g.Layout())
	}
	switch g.Kind() {
	case geo.KindPoint:
		if g.Empty() {
			return geom.NewPointEmpty(l), nil
		}
		return geom.NewPointFlat(l, flatten(g.Coords())), nil
	case geo.KindLineString:
		if g.Empty() {
			return geom.NewLineString(l), nil
		}
		return geom.NewLineStringFlat(l, flatten(g.Coords())), nil
	case geo.KindPolygon:
		return toPolygon(l, g), nil
	case geo.KindMultiPoint:
		mp := geom.NewMultiPoint(l)
		for _, p := range g.Parts() {
			pt, err := toGeom(p)
			if err != nil {
				return nil, err
			}
			if err := mp.Push(pt.(*geom.Point)); err != nil {
				return nil, err
			}
		}
		return mp, nil
	case geo.KindMultiLineString:
		mls := geom.NewMultiLineString(l)
		for _, p := range g.Parts() {
			ls, err := toGeom(p)
			if err != nil {
				return nil, err
			}
			if err := mls.Push(ls.(*geom.LineString)); err != nil {
				return nil, err
			}
		}
		return mls, nil
	case geo.KindMultiPolygon:
		mp := geom.NewMultiPolygon(l)
		for _, p := range g.Parts() {
			if err := mp.Push(toPolygon(l, p)); err != nil {
				return nil, err
			}
		}
		return mp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, g.Kind())
}

func toPolygon(l geom.Layout, g geo.Geometry) *geom.Polygon {
	if g.Empty() {
		return geom.NewPolygon(l)
	}
	var (
		flat []float64
		ends []int
	)
	for _, r := range g.Rings() {
		flat = append(flat, flatten(r)...)
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(l, flat, ends)
}

// FromGeom converts t. A non-zero go-geom SRID becomes the geometry SRID.
func FromGeom(t geom.T) (geo.Geometry, error) {
	g, err := fromGeom(t)
	if err != nil {
		return geo.Geometry{}, err
	}
	if srid := t.SRID(); srid != 0 {
		g = g.WithSRID(int32(srid))
	}
	return g, nil
}

func coords(l geom.Layout, flat []float64) []geo.Coord {
	stride := l.Stride()
	out := make([]geo.Coord, 0, len(flat)/stride)
	for i := 0; i+stride <= len(flat); i += stride {
		c := make(geo.Coord, stride)
		copy(c, flat[i:i+stride])
		out = append(out, c)
	}
	return out
}

func fromGeom(t geom.T) (geo.Geometry, error) {
	l, ok := fromLayout[t.Layout()]
	if !ok {
		return geo.Geometry{}, fmt.Errorf("%w: layout %v", ErrUnsupported, t.Layout())
	}
	switch t := t.(type) {
	case *geom.Point:
		if t.Empty() {
			return geo.NewEmptyPoint(l), nil
		}
		return geo.NewPoint(l, coords(t.Layout(), t.FlatCoords())[0])
	case *geom.LineString:
		return geo.NewLineString(l, coords(t.Layout(), t.FlatCoords())...)
	case *geom.Polygon:
		return fromPolygon(l, t)
	case *geom.MultiPoint:
		parts := make([]geo.Geometry, 0, t.NumPoints())
		for i := 0; i < t.NumPoints(); i++ {
			p, err := fromGeom(t.Point(i))
			if err != nil {
				return geo.Geometry{}, err
			}
			parts = append(parts, p)
		}
		return geo.NewMultiPoint(l, parts...)
	case *geom.MultiLineString:
		parts := make([]geo.Geometry, 0, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			p, err := fromGeom(t.LineString(i))
			if err != nil {
				return geo.Geometry{}, err
			}
			parts = append(parts, p)
		}
		return geo.NewMultiLineString(l, parts...)
	case *geom.MultiPolygon:
		parts := make([]geo.Geometry, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			p, err := fromPolygon(l, t.Polygon(i))
			if err != nil {
				return geo.Geometry{}, err
			}
			parts = append(parts, p)
		}
		return geo.NewMultiPolygon(l, parts...)
	}
	return geo.Geometry{}, fmt.Errorf("%w: %T", ErrUnsupported, t)
}

func fromPolygon(l geo.Layout, p *geom.Polygon) (geo.Geometry, error) {
	rings := make([][]geo.Coord, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		r := p.LinearRing(i)
		rings = append(rings, coords(r.Layout(), r.FlatCoords()))
	}
	return geo.NewPolygon(l, rings...)
}

// Verify encodes g with the go-geom EWKB writer and reads it back with
// wkb.Decode. An explicit SRID of 0 is not compared, go-geom treats it as unset.
func Verify(g geo.Geometry) error {
	t, err := ToGeom(g)
	if err != nil {
		return err
	}
	b, err := ewkb.Marshal(t, binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	back, err := wkb.Decode(b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	want := g
	if srid, ok := g.SRID(); ok && srid == 0 {
		want = g.WithoutSRID()
	}
	if !geo.Equal(want, back) {
		return fmt.Errorf("%w: %s read back as %s", ErrMismatch,
			wkt.Marshal(want, wkt.WithSRID()), wkt.Marshal(back, wkt.WithSRID()))
	}
	return nil
}
