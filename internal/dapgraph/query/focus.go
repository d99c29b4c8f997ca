package query

import (
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

// FocusContext exposes the Debugger's FocusedURL, resolved to each of
// the three entity types `@` markers navigate relative to (§4.7).
// Session/Thread/Frame are reference rollups kept current by an
// internal Use subscription on FocusedURL, registered in the
// debugger's root scope so they live for the debugger's lifetime.
type FocusContext struct {
	debugger *model.Debugger

	Session *graph.Rollup[*model.Session]
	Thread  *graph.Rollup[*model.Thread]
	Frame   *graph.Rollup[*model.Frame]
}

// NewFocusContext builds a FocusContext over d, deriving Session/
// Thread/Frame from d.FocusedURL by walking up the canonical hierarchy
// (frame -> stack -> thread -> session). Only a focused Frame, Thread or
// Session is recognised; any other focused entity leaves all three nil.
func NewFocusContext(d *model.Debugger) *FocusContext {
	fc := &FocusContext{debugger: d}

	resolveFocused := func() model.Entity {
		uri := d.FocusedURL.Get()
		if uri == "" {
			return nil
		}
		single, results, err := Resolve(d, fc, uri)
		if err != nil {
			return nil
		}
		if single != nil {
			return single
		}
		if len(results) > 0 {
			return results[0]
		}
		return nil
	}

	fc.Frame = graph.NewRollup(func() *model.Frame {
		switch v := resolveFocused().(type) {
		case *model.Frame:
			return v
		}
		return nil
	})
	fc.Thread = graph.NewRollup(func() *model.Thread {
		switch v := resolveFocused().(type) {
		case *model.Thread:
			return v
		case *model.Frame:
			return v.Stack().Thread()
		}
		return nil
	})
	fc.Session = graph.NewRollup(func() *model.Session {
		switch v := resolveFocused().(type) {
		case *model.Session:
			return v
		case *model.Thread:
			return v.Session()
		case *model.Frame:
			return v.Stack().Thread().Session()
		}
		return nil
	})

	d.FocusedURL.Use(d.RootScope, func(string) func() {
		fc.Frame.Recompute()
		fc.Thread.Recompute()
		fc.Session.Recompute()
		return nil
	})

	return fc
}

// resolveMarker returns the root entity set a `@marker` prefix
// expands to. "frame+N"/"frame-N" navigate the focused frame's stack
// by N positions (§4.7: "the frame one deeper than the currently
// focused frame").
func (fc *FocusContext) resolveMarker(m *Marker) ([]model.Entity, error) {
	switch m.Name {
	case "debugger":
		return []model.Entity{fc.debugger}, nil
	case "session":
		if s := fc.Session.Get(); s != nil {
			return []model.Entity{s}, nil
		}
		return nil, nil
	case "thread":
		if t := fc.Thread.Get(); t != nil {
			return []model.Entity{t}, nil
		}
		return nil, nil
	case "frame":
		fr := fc.Frame.Get()
		if fr == nil {
			return nil, nil
		}
		if m.Delta == 0 {
			return []model.Entity{fr}, nil
		}
		target := fr.Index.Get() + m.Delta
		st := fr.Stack()
		f, ok := st.Frames.First(func(f *model.Frame) bool { return f.Index.Get() == target })
		if !ok {
			return nil, nil
		}
		return []model.Entity{f}, nil
	}
	return nil, nil
}
