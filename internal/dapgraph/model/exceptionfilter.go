package model

import "github.com/dshills/dapgraph/internal/dapgraph/graph"

// ExceptionFilter is one of a session's adapter-advertised exception
// breakpoint filters (§3, §3.1), independently toggleable by the
// consumer and synchronised as a single per-session setExceptionBreakpoints
// call (C10).
type ExceptionFilter struct {
	graph.Base
	session *Session

	FilterID string
	Label    string

	Enabled   *graph.Signal[bool]
	Condition *graph.Signal[string]

	changeHook func()
}

func newExceptionFilter(sess *Session, filterID, label string, defaultEnabled bool) *ExceptionFilter {
	return &ExceptionFilter{
		Base:      graph.NewBase(exceptionFilterURI(sess.ID(), filterID)),
		session:   sess,
		FilterID:  filterID,
		Label:     label,
		Enabled:   graph.NewSignal(defaultEnabled),
		Condition: graph.NewSignal(""),
	}
}

// SetChangeHook installs the callback the synchroniser uses to learn
// that this filter's toggle/condition changed.
func (f *ExceptionFilter) SetChangeHook(fn func()) { f.changeHook = fn }

// SetEnabled toggles the filter, firing the change hook on an actual
// change only.
func (f *ExceptionFilter) SetEnabled(enabled bool) {
	if f.Enabled.Get() == enabled {
		return
	}
	f.Enabled.Set(enabled)
	if f.changeHook != nil {
		f.changeHook()
	}
}

// SetCondition updates the per-filter condition (gated by the caller on
// Capabilities.SupportsExceptionFilterOptions).
func (f *ExceptionFilter) SetCondition(cond string) {
	f.Condition.Set(cond)
	if f.changeHook != nil {
		f.changeHook()
	}
}
