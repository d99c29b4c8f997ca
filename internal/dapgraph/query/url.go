// Package query implements the navigation-path half of the identity
// scheme: a hand-written recursive-descent parser for the URL grammar,
// traversal over the concrete entity types in model, and the focus
// context consumers use to express "the current frame" style
// shorthands.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Marker is the optional `@name` prefix of a URL, resolved against a
// FocusContext rather than the debugger root.
type Marker struct {
	Name  string // "debugger", "session", "thread", "frame"
	Delta int    // signed offset for "frame+N"/"frame-N"; zero otherwise
}

// Filter is one `field=literal` clause of a segment's filter list.
// Glob is set when Value contains a `*` or `?`, selecting
// tidwall/match glob comparison over plain equality.
type Filter struct {
	Field string
	Value string
	Glob  bool
}

// Segment is one `EdgeName(:Key)?(filter)?[index]?` step of a URL.
type Segment struct {
	Edge     string
	Key      string
	HasKey   bool
	Filters  []Filter
	Index    int
	HasIndex bool
}

// URL is a parsed navigation path (§4.7).
type URL struct {
	Raw      string
	Absolute bool
	Marker   *Marker
	Segments []Segment
}

type parser struct {
	s   string
	pos int
}

// Parse parses a navigation path per the grammar:
//
//	URL       := Prefix? Segment ('/' Segment)*
//	Prefix    := '/' | '@' Marker
//	Marker    := 'debugger' | 'session' | 'thread' | 'frame' | 'frame+' N | 'frame-' N
//	Segment   := EdgeName (':' Key)? ('(' FilterList ')')? ('[' Index ']')?
//	Index     := SignedInt
//	FilterList:= Field '=' Literal (',' Field '=' Literal)*
//
// A string with neither prefix is treated as absolute (rooted at the
// debugger), the same as a leading `/` (Open Question, decided in
// DESIGN.md).
func Parse(s string) (*URL, error) {
	p := &parser{s: s}
	u := &URL{Raw: s}

	switch {
	case strings.HasPrefix(s, "@"):
		p.pos = 1
		m, err := p.parseMarker()
		if err != nil {
			return nil, err
		}
		u.Marker = m
		if p.peek() == '/' {
			p.pos++
		}
	case strings.HasPrefix(s, "/"):
		u.Absolute = true
		p.pos = 1
	default:
		u.Absolute = true
	}

	for {
		if p.pos >= len(p.s) {
			break
		}
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		u.Segments = append(u.Segments, seg)
		if p.pos >= len(p.s) {
			break
		}
		if p.s[p.pos] != '/' {
			return nil, fmt.Errorf("query: unexpected %q at position %d in %q", p.s[p.pos], p.pos, s)
		}
		p.pos++
	}

	return u, nil
}

func (p *parser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '-' || b == '+' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) parseMarker() (*Marker, error) {
	switch {
	case strings.HasPrefix(p.s[p.pos:], "frame+"):
		p.pos += len("frame+")
		n, err := p.parseInt()
		if err != nil {
			return nil, fmt.Errorf("query: bad frame+N marker: %w", err)
		}
		return &Marker{Name: "frame", Delta: n}, nil
	case strings.HasPrefix(p.s[p.pos:], "frame-"):
		p.pos += len("frame-")
		n, err := p.parseInt()
		if err != nil {
			return nil, fmt.Errorf("query: bad frame-N marker: %w", err)
		}
		return &Marker{Name: "frame", Delta: -n}, nil
	}
	name := p.parseIdent()
	switch name {
	case "debugger", "session", "thread", "frame":
		return &Marker{Name: name}, nil
	default:
		return nil, fmt.Errorf("query: unknown marker %q", name)
	}
}

func (p *parser) parseInt() (int, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected digits at position %d", p.pos)
	}
	return strconv.Atoi(p.s[start:p.pos])
}

func (p *parser) parseSegment() (Segment, error) {
	var seg Segment
	seg.Edge = p.parseIdent()
	if seg.Edge == "" {
		return seg, fmt.Errorf("query: expected edge name at position %d in %q", p.pos, p.s)
	}

	if p.peek() == ':' {
		p.pos++
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] != '(' && p.s[p.pos] != '[' && p.s[p.pos] != '/' {
			p.pos++
		}
		seg.Key = p.s[start:p.pos]
		seg.HasKey = true
	}

	if p.peek() == '(' {
		p.pos++
		filters, err := p.parseFilterList()
		if err != nil {
			return seg, err
		}
		seg.Filters = filters
		if p.peek() != ')' {
			return seg, fmt.Errorf("query: expected ')' at position %d in %q", p.pos, p.s)
		}
		p.pos++
	}

	if p.peek() == '[' {
		p.pos++
		neg := false
		if p.peek() == '-' {
			neg = true
			p.pos++
		}
		n, err := p.parseInt()
		if err != nil {
			return seg, fmt.Errorf("query: bad index: %w", err)
		}
		if neg {
			n = -n
		}
		seg.Index = n
		seg.HasIndex = true
		if p.peek() != ']' {
			return seg, fmt.Errorf("query: expected ']' at position %d in %q", p.pos, p.s)
		}
		p.pos++
	}

	return seg, nil
}

func (p *parser) parseFilterList() ([]Filter, error) {
	var out []Filter
	for {
		field := p.parseIdent()
		if field == "" {
			return nil, fmt.Errorf("query: expected field name at position %d in %q", p.pos, p.s)
		}
		if p.peek() != '=' {
			return nil, fmt.Errorf("query: expected '=' at position %d in %q", p.pos, p.s)
		}
		p.pos++
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] != ',' && p.s[p.pos] != ')' {
			p.pos++
		}
		value := p.s[start:p.pos]
		out = append(out, Filter{
			Field: field,
			Value: value,
			Glob:  strings.ContainsAny(value, "*?"),
		})
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	return out, nil
}

// IsURI reports whether s looks like a canonical URI (a known type
// prefix followed by ':', or the bare "debugger" token) rather than a
// navigation path.
func IsURI(s string) bool {
	if s == "debugger" {
		return true
	}
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return false
	}
	switch s[:i] {
	case "session", "thread", "stack", "frame", "scope", "variable",
		"source", "sourcebinding", "breakpoint", "bpbinding", "output", "exceptionfilter":
		return true
	default:
		return false
	}
}
