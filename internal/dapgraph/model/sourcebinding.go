package model

import "github.com/dshills/dapgraph/internal/dapgraph/graph"

// SourceBinding pairs a Source with a Session, carrying the adapter-
// local source reference used for `source` requests against virtual
// sources (§3).
type SourceBinding struct {
	graph.Base
	source  *Source
	session *Session

	AdapterSourceRef *graph.Signal[int]
}

// NewSourceBinding constructs and links a SourceBinding between source
// and sess.
func NewSourceBinding(source *Source, sess *Session) *SourceBinding {
	sb := &SourceBinding{
		Base:             graph.NewBase(sourceBindingURI(sess.ID(), source.Key)),
		source:           source,
		session:          sess,
		AdapterSourceRef: graph.NewSignal(0),
	}
	source.Bindings.Link(sb)
	sess.SourceBindings.Link(sb)
	sess.register(sb)
	return sb
}

// Source returns the owning Source.
func (sb *SourceBinding) Source() *Source { return sb.source }

// Session returns the owning Session.
func (sb *SourceBinding) Session() *Session { return sb.session }

func (sb *SourceBinding) delete() {
	if !sb.MarkDeleted() {
		return
	}
	sb.source.Bindings.Unlink(sb)
	sb.session.SourceBindings.Unlink(sb)
	sb.session.debugger.lock()
	sb.session.debugger.unregister(sb)
	sb.session.debugger.unlock()
}
