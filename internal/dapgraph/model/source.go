package model

import (
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/dapgraph/internal/dapgraph/graph"
)

// normalizeText applies NFC normalization so adapter-supplied display
// names and path components that differ only in Unicode normalization
// form (common across OSes) resolve to the same Source entity (§1.2,
// §4.9 loadedSource rule).
func normalizeText(s string) string { return norm.NFC.String(s) }

// Source is a content-addressed file or virtual source (§3).
type Source struct {
	graph.Base
	debugger *Debugger

	Key     string
	Path    *graph.Signal[string]
	Name    *graph.Signal[string]
	Content *graph.Signal[string]

	Breakpoints *graph.Edge[*Breakpoint]
	Bindings    *graph.Edge[*SourceBinding]
}

func newSource(d *Debugger, key string) *Source {
	key = normalizeText(key)
	s := &Source{
		Base:     graph.NewBase(sourceURI(key)),
		debugger: d,
		Key:      key,
		Path:     graph.NewSignal(""),
		Name:     graph.NewSignal(""),
		Content:  graph.NewSignal(""),
	}
	s.Breakpoints = graph.NewEdge(func(b *Breakpoint) string { return b.URI() },
		func(a, b *Breakpoint) bool {
			if a.Line.Get() != b.Line.Get() {
				return a.Line.Get() < b.Line.Get()
			}
			return a.Column.Get() < b.Column.Get()
		})
	s.Breakpoints.Index("line", func(b *Breakpoint) string { return strconv.Itoa(b.Line.Get()) })
	s.Bindings = graph.NewEdge(func(b *SourceBinding) string { return b.URI() }, nil)
	return s
}

// ByLine returns every enabled-or-not Breakpoint registered at line, an
// O(1) lookup via the Breakpoints edge's "line" index.
func (s *Source) ByLine(line int) []*Breakpoint {
	return s.Breakpoints.ByIndex("line", strconv.Itoa(line))
}

// EnabledBreakpoints returns the enabled subset, in (line, column)
// order, the deterministic order the synchroniser (C10) sends.
func (s *Source) EnabledBreakpoints() []*Breakpoint {
	return s.Breakpoints.Filter(func(b *Breakpoint) bool { return b.Enabled.Get() })
}
