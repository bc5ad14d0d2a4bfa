package wkb

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/woozymasta/wkbtext/internal/geo"
)

// Flavor selects how dimensionality and SRID are written.
type Flavor int

const (
	// FlavorEWKB uses the PostGIS flag bits and writes the SRID when set.
	FlavorEWKB Flavor = iota
	// FlavorISO uses ISO 13249 type codes (+1000 Z, +2000 M, +3000 ZM)
	// and never writes an SRID.
	FlavorISO
)

// Encoder writes WKB with fixed parameters.
type Encoder struct {
	order  binary.ByteOrder
	flavor Flavor
}

// An EncodeOption is an encoder option.
type EncodeOption func(*Encoder)

// WithByteOrder sets the output byte order. The default is little-endian.
func WithByteOrder(order binary.ByteOrder) EncodeOption {
	return func(e *Encoder) {
		e.order = order
	}
}

// WithFlavor sets the output flavor. The default is FlavorEWKB.
func WithFlavor(f Flavor) EncodeOption {
	return func(e *Encoder) {
		e.flavor = f
	}
}

// NewEncoder returns an encoder with the given options applied.
func NewEncoder(opts ...EncodeOption) *Encoder {
	e := &Encoder{order: binary.LittleEndian, flavor: FlavorEWKB}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Marshal encodes g as WKB.
func Marshal(g geo.Geometry, opts ...EncodeOption) ([]byte, error) {
	return NewEncoder(opts...).Encode(g)
}

// MarshalHex encodes g as upper-case hex WKB.
func MarshalHex(g geo.Geometry, opts ...EncodeOption) (string, error) {
	b, err := Marshal(g, opts...)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// Encode encodes g as WKB.
func (e *Encoder) Encode(g geo.Geometry) ([]byte, error) {
	if !g.Kind().Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, g.Kind())
	}
	w := &writer{order: e.order}
	e.write(w, g, true)
	return w.buf, nil
}

func (e *Encoder) typeCode(g geo.Geometry, top bool) uint32 {
	t := uint32(g.Kind())
	l := g.Layout()
	if e.flavor == FlavorISO {
		switch l {
		case geo.XYZ:
			t += 1000
		case geo.XYM:
			t += 2000
		case geo.XYZM:
			t += 3000
		}
		return t
	}
	if l.HasZ() {
		t |= flagZ
	}
	if l.HasM() {
		t |= flagM
	}
	if _, ok := g.SRID(); ok && top {
		t |= flagSRID
	}
	return t
}

func (e *Encoder) write(w *writer, g geo.Geometry, top bool) {
	if e.order.Uint16([]byte{0, 1}) == 1 {
		w.byte(XDR)
	} else {
		w.byte(NDR)
	}
	t := e.typeCode(g, top)
	w.uint32(t)
	if t&flagSRID != 0 {
		srid, _ := g.SRID()
		w.uint32(uint32(srid))
	}

	switch g.Kind() {
	case geo.KindPoint:
		if g.Empty() {
			for i := 0; i < g.Layout().Stride(); i++ {
				w.float64(math.NaN())
			}
			return
		}
		w.coord(g.Coords()[0])
	case geo.KindLineString:
		w.coords(g.Coords())
	case geo.KindPolygon:
		rings := g.Rings()
		w.uint32(uint32(len(rings)))
		for _, r := range rings {
			w.coords(r)
		}
	default:
		parts := g.Parts()
		w.uint32(uint32(len(parts)))
		for _, p := range parts {
			e.write(w, p, false)
		}
	}
}

type writer struct {
	buf   []byte
	order binary.ByteOrder
}

func (w *writer) byte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) uint32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) float64(v float64) {
	var b [8]byte
	w.order.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) coord(c geo.Coord) {
	for _, v := range c {
		w.float64(v)
	}
}

func (w *writer) coords(cs []geo.Coord) {
	w.uint32(uint32(len(cs)))
	for _, c := range cs {
		w.coord(c)
	}
}
