package wkt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/woozymasta/wkbtext/internal/geo"
)

// ErrSyntax is returned when the input is not well-formed WKT.
var ErrSyntax = errors.New("wkt: syntax error")

var keywords = map[string]geo.Kind{
	"POINT":           geo.KindPoint,
	"LINESTRING":      geo.KindLineString,
	"POLYGON":         geo.KindPolygon,
	"MULTIPOINT":      geo.KindMultiPoint,
	"MULTILINESTRING": geo.KindMultiLineString,
	"MULTIPOLYGON":    geo.KindMultiPolygon,
}

var suffixes = map[string]geo.Layout{
	"Z":  geo.XYZ,
	"M":  geo.XYM,
	"ZM": geo.XYZM,
}

// Unmarshal translates a WKT, optionally prefixed with SRID=<n>;, to the
// corresponding geometry. Without a Z or M qualifier the layout follows
// the first coordinate: three ordinates mean XYZ, four mean XYZM.
func Unmarshal(s string) (geo.Geometry, error) {
	p := &parser{toks: lex(s), end: len(s)}

	var (
		srid    int32
		hasSRID bool
	)
	if strings.EqualFold(p.peek().text, "SRID") {
		p.next()
		if err := p.expect("="); err != nil {
			return geo.Geometry{}, err
		}
		t := p.next()
		v, err := strconv.ParseInt(t.text, 10, 32)
		if err != nil {
			return geo.Geometry{}, fmt.Errorf("%w: invalid SRID %q at offset %d", ErrSyntax, t.text, t.off)
		}
		if err := p.expect(sepSRID); err != nil {
			return geo.Geometry{}, err
		}
		srid, hasSRID = int32(v), true
	}

	kind, err := p.keyword()
	if err != nil {
		return geo.Geometry{}, err
	}
	n, err := p.tagged(kind)
	if err != nil {
		return geo.Geometry{}, err
	}
	if t := p.peek(); t.text != "" {
		return geo.Geometry{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.off)
	}

	g, err := p.build(kind, n)
	if err != nil {
		return geo.Geometry{}, err
	}
	if hasSRID {
		g = g.WithSRID(srid)
	}
	return g, nil
}

type token struct {
	text string
	off  int
}

func isPunct(r rune) bool {
	return strings.ContainsRune("(),;=", r)
}

func lex(s string) []token {
	var toks []token
	start := -1
	flush := func(i int) {
		if start >= 0 {
			toks = append(toks, token{text: s[start:i], off: start})
			start = -1
		}
	}
	for i, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case isPunct(r):
			flush(i)
			toks = append(toks, token{text: string(r), off: i})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(s))
	return toks
}

// node is the parsed shape before the layout is final.
type node struct {
	empty    bool
	coords   []geo.Coord
	children []node
}

type parser struct {
	toks []token
	pos  int
	end  int

	layout geo.Layout
	known  bool
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{off: p.end}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) expect(text string) error {
	t := p.next()
	if t.text != text {
		return p.unexpected(t, text)
	}
	return nil
}

func (p *parser) unexpected(t token, want string) error {
	if t.text == "" {
		return fmt.Errorf("%w: expected %q at offset %d, got end of input", ErrSyntax, want, t.off)
	}
	return fmt.Errorf("%w: expected %q at offset %d, got %q", ErrSyntax, want, t.off, t.text)
}

// keyword reads the geometry keyword and its optional dimension
// qualifier, which may be glued on (POINTZ) or separate (POINT Z).
func (p *parser) keyword() (geo.Kind, error) {
	t := p.next()
	word := strings.ToUpper(t.text)
	kind, ok := keywords[word]
	if !ok {
		for _, sfx := range []string{"ZM", "Z", "M"} {
			if k, found := keywords[strings.TrimSuffix(word, sfx)]; found && strings.HasSuffix(word, sfx) {
				kind, ok = k, true
				p.setLayout(suffixes[sfx])
				break
			}
		}
	}
	if !ok {
		if t.text == "" {
			return 0, fmt.Errorf("%w: missing geometry keyword", ErrSyntax)
		}
		return 0, fmt.Errorf("%w: unknown geometry type %q at offset %d", ErrSyntax, t.text, t.off)
	}
	if l, found := suffixes[strings.ToUpper(p.peek().text)]; found {
		if p.known {
			return 0, fmt.Errorf("%w: duplicate dimension qualifier at offset %d", ErrSyntax, p.peek().off)
		}
		p.next()
		p.setLayout(l)
	}
	return kind, nil
}

func (p *parser) setLayout(l geo.Layout) {
	p.layout = l
	p.known = true
}

// empty consumes EMPTY if it is next.
func (p *parser) empty() bool {
	if strings.EqualFold(p.peek().text, tEmpty) {
		p.next()
		return true
	}
	return false
}

// tagged parses the text following a geometry keyword.
func (p *parser) tagged(kind geo.Kind) (node, error) {
	if p.empty() {
		return node{empty: true}, nil
	}
	switch kind {
	case geo.KindPoint:
		return p.list(func() (node, error) {
			c, err := p.coord()
			return node{coords: []geo.Coord{c}}, err
		}, 1)
	case geo.KindLineString:
		return p.coordList()
	case geo.KindPolygon:
		return p.list(p.coordList, 0)
	case geo.KindMultiPoint:
		return p.list(p.multiPointElem, 0)
	case geo.KindMultiLineString:
		return p.list(p.orEmpty(p.coordList), 0)
	}
	return p.list(p.orEmpty(func() (node, error) {
		return p.list(p.coordList, 0)
	}), 0)
}

// list parses "(" item {"," item} ")". limit caps the item count when
// positive.
func (p *parser) list(item func() (node, error), limit int) (node, error) {
	if err := p.expect("("); err != nil {
		return node{}, err
	}
	var out node
	for {
		n, err := item()
		if err != nil {
			return node{}, err
		}
		out.children = append(out.children, n)
		t := p.next()
		if t.text == ")" {
			break
		}
		if t.text != "," || (limit > 0 && len(out.children) == limit) {
			return node{}, p.unexpected(t, ")")
		}
	}
	// POINT (x y) unwraps to its only coordinate.
	if limit == 1 {
		return out.children[0], nil
	}
	return out, nil
}

func (p *parser) orEmpty(item func() (node, error)) func() (node, error) {
	return func() (node, error) {
		if p.empty() {
			return node{empty: true}, nil
		}
		return item()
	}
}

func (p *parser) coordList() (node, error) {
	if err := p.expect("("); err != nil {
		return node{}, err
	}
	var out node
	for {
		c, err := p.coord()
		if err != nil {
			return node{}, err
		}
		out.coords = append(out.coords, c)
		t := p.next()
		if t.text == ")" {
			return out, nil
		}
		if t.text != "," {
			return node{}, p.unexpected(t, ")")
		}
	}
}

// multiPointElem accepts "(x y)", bare "x y" or EMPTY.
func (p *parser) multiPointElem() (node, error) {
	if p.empty() {
		return node{empty: true}, nil
	}
	if p.peek().text == "(" {
		p.next()
		c, err := p.coord()
		if err != nil {
			return node{}, err
		}
		if err := p.expect(")"); err != nil {
			return node{}, err
		}
		return node{coords: []geo.Coord{c}}, nil
	}
	c, err := p.coord()
	return node{coords: []geo.Coord{c}}, err
}

func (p *parser) coord() (geo.Coord, error) {
	start := p.peek()
	var c geo.Coord
	for {
		t := p.peek()
		if t.text == "" || (len(t.text) == 1 && isPunct(rune(t.text[0]))) {
			break
		}
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q at offset %d", ErrSyntax, t.text, t.off)
		}
		p.next()
		c = append(c, v)
	}
	if len(c) < 2 || len(c) > 4 {
		return nil, fmt.Errorf("%w: coordinate at offset %d has %d ordinates", ErrSyntax, start.off, len(c))
	}
	if !p.known {
		switch len(c) {
		case 3:
			p.setLayout(geo.XYZ)
		case 4:
			p.setLayout(geo.XYZM)
		default:
			p.setLayout(geo.XY)
		}
	}
	if len(c) != p.layout.Stride() {
		return nil, fmt.Errorf("%w: coordinate at offset %d has %d ordinates, %s needs %d", ErrSyntax, start.off, len(c), p.layout, p.layout.Stride())
	}
	return c, nil
}

func (p *parser) build(kind geo.Kind, n node) (geo.Geometry, error) {
	layout := p.layout
	switch kind {
	case geo.KindPoint:
		if n.empty || (len(n.coords) == 1 && n.coords[0].IsNaN()) {
			return geo.NewEmptyPoint(layout), nil
		}
		return geo.NewPoint(layout, n.coords[0])
	case geo.KindLineString:
		return geo.NewLineString(layout, n.coords...)
	case geo.KindPolygon:
		rings := make([][]geo.Coord, 0, len(n.children))
		for _, c := range n.children {
			rings = append(rings, c.coords)
		}
		return geo.NewPolygon(layout, rings...)
	}
	elem, _ := kind.Element()
	parts := make([]geo.Geometry, 0, len(n.children))
	for _, c := range n.children {
		g, err := p.build(elem, c)
		if err != nil {
			return geo.Geometry{}, err
		}
		parts = append(parts, g)
	}
	return geo.NewMulti(kind, layout, parts...)
}
