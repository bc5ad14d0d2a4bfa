// Package wkt implements Well Known Text encoding and decoding.
package wkt

import (
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/wkbtext/internal/geo"
)

const (
	tEmpty  = "EMPTY"
	tSRID   = "SRID="
	sepSRID = ";"
)

// Encoder encodes WKT with the configured options.
type Encoder struct {
	maxDecimalDigits int
	withSRID         bool
}

// An EncodeOption is an encoder option.
type EncodeOption func(*Encoder)

// WithPrecision limits output to n decimal digits, trimming trailing zeros.
// A negative n selects the shortest round-trippable form, which is the default.
func WithPrecision(n int) EncodeOption {
	return func(e *Encoder) {
		e.maxDecimalDigits = n
	}
}

// WithSRID prefixes the output with SRID=<n>; when the geometry carries
// an SRID (the PostGIS EWKT form).
func WithSRID() EncodeOption {
	return func(e *Encoder) {
		e.withSRID = true
	}
}

// NewEncoder returns a new encoder with the given options set.
func NewEncoder(opts ...EncodeOption) *Encoder {
	e := &Encoder{maxDecimalDigits: -1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Marshal translates a geometry to the corresponding WKT.
func Marshal(g geo.Geometry, opts ...EncodeOption) string {
	return NewEncoder(opts...).Encode(g)
}

// Encode translates a geometry to the corresponding WKT.
func (e *Encoder) Encode(g geo.Geometry) string {
	var sb strings.Builder
	if srid, ok := g.SRID(); ok && e.withSRID {
		sb.WriteString(tSRID)
		sb.WriteString(strconv.FormatInt(int64(srid), 10))
		sb.WriteString(sepSRID)
	}
	sb.WriteString(g.Kind().String())
	sb.WriteByte(' ')
	if s := g.Layout().Suffix(); s != "" {
		sb.WriteString(s)
		sb.WriteByte(' ')
	}
	e.body(&sb, g)
	return sb.String()
}

// body writes the parenthesised part of g, or EMPTY.
func (e *Encoder) body(sb *strings.Builder, g geo.Geometry) {
	if g.Empty() {
		sb.WriteString(tEmpty)
		return
	}
	switch g.Kind() {
	case geo.KindPoint, geo.KindLineString:
		e.coords(sb, g.Coords())
	case geo.KindPolygon:
		e.rings(sb, g.Rings())
	default:
		sb.WriteByte('(')
		for i, p := range g.Parts() {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.body(sb, p)
		}
		sb.WriteByte(')')
	}
}

func (e *Encoder) rings(sb *strings.Builder, rings [][]geo.Coord) {
	sb.WriteByte('(')
	for i, r := range rings {
		if i > 0 {
			sb.WriteString(", ")
		}
		e.coords(sb, r)
	}
	sb.WriteByte(')')
}

func (e *Encoder) coords(sb *strings.Builder, cs []geo.Coord) {
	sb.WriteByte('(')
	for i, c := range cs {
		if i > 0 {
			sb.WriteString(", ")
		}
		for j, v := range c {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(e.number(v))
		}
	}
	sb.WriteByte(')')
}

func (e *Encoder) number(v float64) string {
	if e.maxDecimalDigits >= 0 {
		s := strconv.FormatFloat(v, 'f', e.maxDecimalDigits, 64)
		if strings.Contains(s, ".") {
			s = strings.TrimRight(s, "0")
			s = strings.TrimSuffix(s, ".")
		}
		if s == "-0" {
			s = "0"
		}
		return s
	}
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
