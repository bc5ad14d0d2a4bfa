// Package wkb reads and writes the Well-Known Binary geometry encoding,
// including the PostGIS extended (EWKB) flags and ISO dimension codes.
package wkb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/woozymasta/wkbtext/internal/geo"
)

var (
	// ErrInvalidByteOrder is returned when a byte order marker is neither 0 nor 1.
	ErrInvalidByteOrder = errors.New("wkb: invalid byte order")
	// ErrUnsupportedType is returned for a base type outside Point..MultiPolygon.
	ErrUnsupportedType = errors.New("wkb: unsupported geometry type")
	// ErrTruncatedInput is returned when the input length does not match
	// what the headers declare.
	ErrTruncatedInput = errors.New("wkb: truncated input")
)

// Byte order markers.
const (
	XDR byte = 0 // big-endian
	NDR byte = 1 // little-endian
)

// EWKB type flags.
const (
	flagZ    uint32 = 0x80000000
	flagM    uint32 = 0x40000000
	flagSRID uint32 = 0x20000000
	flagMask        = flagZ | flagM | flagSRID
)

const (
	headerSize = 1 + 4
	countSize  = 4
	floatSize  = 8
)

// Decode parses a WKB or EWKB geometry. The whole of b must be consumed.
func Decode(b []byte) (geo.Geometry, error) {
	if len(b) == 0 {
		return geo.Geometry{}, fmt.Errorf("%w: empty input", ErrTruncatedInput)
	}
	r := &reader{buf: b}
	g, err := r.geometry(nil)
	if err != nil {
		return geo.Geometry{}, err
	}
	if rest := len(r.buf) - r.off; rest != 0 {
		return geo.Geometry{}, fmt.Errorf("%w: %d bytes left after geometry at offset %d", ErrTruncatedInput, rest, r.off)
	}
	return g, nil
}

type header struct {
	order   binary.ByteOrder
	kind    geo.Kind
	layout  geo.Layout
	srid    int32
	hasSRID bool
}

type reader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

func (r *reader) need(n int, what string) error {
	if len(r.buf)-r.off < n {
		return fmt.Errorf("%w: %s needs %d bytes at offset %d, %d left", ErrTruncatedInput, what, n, r.off, len(r.buf)-r.off)
	}
	return nil
}

func (r *reader) uint32(what string) (uint32, error) {
	if err := r.need(4, what); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// count reads an element count and checks that the remaining input can
// hold at least count elements of minSize bytes.
func (r *reader) count(what string, minSize int) (int, error) {
	n, err := r.uint32(what + " count")
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minSize) > uint64(len(r.buf)-r.off) {
		return 0, fmt.Errorf("%w: %s count %d at offset %d exceeds remaining %d bytes", ErrTruncatedInput, what, n, r.off-4, len(r.buf)-r.off)
	}
	return int(n), nil
}

func (r *reader) coord(layout geo.Layout) (geo.Coord, error) {
	stride := layout.Stride()
	if err := r.need(stride*floatSize, "coordinate"); err != nil {
		return nil, err
	}
	c := make(geo.Coord, stride)
	for i := range c {
		c[i] = math.Float64frombits(r.order.Uint64(r.buf[r.off:]))
		r.off += floatSize
	}
	return c, nil
}

func (r *reader) coords(layout geo.Layout, what string) ([]geo.Coord, error) {
	n, err := r.count(what, layout.Stride()*floatSize)
	if err != nil {
		return nil, err
	}
	out := make([]geo.Coord, 0, n)
	for i := 0; i < n; i++ {
		c, err := r.coord(layout)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *reader) header() (header, error) {
	start := r.off
	if err := r.need(headerSize, "header"); err != nil {
		return header{}, err
	}
	var h header
	switch r.buf[r.off] {
	case XDR:
		h.order = binary.BigEndian
	case NDR:
		h.order = binary.LittleEndian
	default:
		return header{}, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidByteOrder, r.buf[r.off], r.off)
	}
	r.off++
	r.order = h.order

	t, err := r.uint32("type")
	if err != nil {
		return header{}, err
	}
	flags := t & flagMask
	code := t &^ flagMask
	base, iso := code%1000, code/1000
	if iso > 3 {
		return header{}, fmt.Errorf("%w: type 0x%08x at offset %d", ErrUnsupportedType, t, start+1)
	}
	h.kind = geo.Kind(base)
	if !h.kind.Valid() {
		return header{}, fmt.Errorf("%w: type 0x%08x at offset %d", ErrUnsupportedType, t, start+1)
	}
	hasZ := flags&flagZ != 0 || iso == 1 || iso == 3
	hasM := flags&flagM != 0 || iso == 2 || iso == 3
	h.layout = geo.NewLayout(hasZ, hasM)

	if flags&flagSRID != 0 {
		srid, err := r.uint32("srid")
		if err != nil {
			return header{}, err
		}
		h.srid = int32(srid)
		h.hasSRID = true
	}
	return h, nil
}

// geometry reads one self-describing geometry. parent is nil at the top
// level; nested elements must match its layout.
func (r *reader) geometry(parent *header) (geo.Geometry, error) {
	start := r.off
	h, err := r.header()
	if err != nil {
		return geo.Geometry{}, err
	}
	if parent != nil && h.layout != parent.layout {
		return geo.Geometry{}, fmt.Errorf("%w: element at offset %d has layout %s inside %s", geo.ErrInvalidGeometry, start, h.layout, parent.layout)
	}

	g, err := r.body(h)
	if err != nil {
		return geo.Geometry{}, err
	}
	if parent == nil && h.hasSRID {
		g = g.WithSRID(h.srid)
	}
	return g, nil
}

func (r *reader) body(h header) (geo.Geometry, error) {
	switch h.kind {
	case geo.KindPoint:
		c, err := r.coord(h.layout)
		if err != nil {
			return geo.Geometry{}, err
		}
		if c.IsNaN() {
			return geo.NewEmptyPoint(h.layout), nil
		}
		return geo.NewPoint(h.layout, c)

	case geo.KindLineString:
		cs, err := r.coords(h.layout, "point")
		if err != nil {
			return geo.Geometry{}, err
		}
		return geo.NewLineString(h.layout, cs...)

	case geo.KindPolygon:
		n, err := r.count("ring", countSize)
		if err != nil {
			return geo.Geometry{}, err
		}
		rings := make([][]geo.Coord, 0, n)
		for i := 0; i < n; i++ {
			ring, err := r.coords(h.layout, "point")
			if err != nil {
				return geo.Geometry{}, err
			}
			rings = append(rings, ring)
		}
		return geo.NewPolygon(h.layout, rings...)
	}

	elem, _ := h.kind.Element()
	n, err := r.count("element", headerSize)
	if err != nil {
		return geo.Geometry{}, err
	}
	parts := make([]geo.Geometry, 0, n)
	for i := 0; i < n; i++ {
		off := r.off
		p, err := r.geometry(&h)
		if err != nil {
			return geo.Geometry{}, err
		}
		if p.Kind() != elem {
			return geo.Geometry{}, fmt.Errorf("%w: %s element at offset %d is a %s", geo.ErrInvalidGeometry, h.kind, off, p.Kind())
		}
		parts = append(parts, p)
	}
	// Nested headers switch the reader's byte order.
	r.order = h.order
	return geo.NewMulti(h.kind, h.layout, parts...)
}
