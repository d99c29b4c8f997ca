package debugger

import (
	"context"

	"github.com/dshills/dapgraph/internal/dapgraph/event"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

// Topics published on the debugger's event bus, a decoupled projection
// of graph mutations for consumers (an editor's debug console, a
// problems panel) that want a subscription feed rather than a Watch
// over the graph itself.
const (
	TopicSessionStarted    event.Topic = "dapgraph.session.started"
	TopicSessionStopped    event.Topic = "dapgraph.session.stopped"
	TopicSessionTerminated event.Topic = "dapgraph.session.terminated"
	TopicBreakpointHit     event.Topic = "dapgraph.breakpoint.hit"
	TopicOutputAppended    event.Topic = "dapgraph.output.appended"
)

// SessionEvent is the payload for the three session lifecycle topics.
type SessionEvent struct {
	SessionURI string
	Adapter    string
}

// BreakpointHitEvent is the payload for TopicBreakpointHit.
type BreakpointHitEvent struct {
	SessionURI string
	BindingURI string
	Line       int
}

// OutputEvent is the payload for TopicOutputAppended.
type OutputEvent struct {
	SessionURI string
	Category   string
	Text       string
}

// Events returns the debugger's event bus. Subscribe with
// bus.SubscribeFunc(topic, handler) to receive the Topic* events
// published above, independent of any graph Watch subscription.
func (d *Debugger) Events() event.Bus { return d.bus }

func (d *Debugger) publish(t event.Topic, payload any) {
	evt := event.NewEvent(t, payload, "dapgraph")
	_ = d.bus.PublishAsync(context.Background(), evt)
}

// wireEvents projects session lifecycle, output and breakpoint-hit
// graph mutations onto the event bus for every session, present and
// future.
func (d *Debugger) wireEvents() {
	d.root.Sessions.Each(d.root.RootScope, func(sess *model.Session) func() {
		d.wireSessionEvents(sess)
		return nil
	})
}

func (d *Debugger) wireSessionEvents(sess *model.Session) {
	prev := model.SessionUnstarted
	sess.State.Use(sess.Scope, func(st model.SessionState) func() {
		switch st {
		case model.SessionRunning:
			if prev != model.SessionRunning && prev != model.SessionStopped {
				d.publish(TopicSessionStarted, SessionEvent{SessionURI: sess.URI(), Adapter: sess.Name.Get()})
			}
		case model.SessionStopped:
			d.publish(TopicSessionStopped, SessionEvent{SessionURI: sess.URI(), Adapter: sess.Name.Get()})
		case model.SessionTerminated:
			d.publish(TopicSessionTerminated, SessionEvent{SessionURI: sess.URI(), Adapter: sess.Name.Get()})
		}
		prev = st
		return nil
	})

	sess.Outputs.Each(sess.Scope, func(o *model.Output) func() {
		d.publish(TopicOutputAppended, OutputEvent{
			SessionURI: sess.URI(),
			Category:   string(o.Category),
			Text:       o.Text,
		})
		return nil
	})
}

// wireBreakpointEvents watches every binding of bp for its Hit signal
// turning true, publishing TopicBreakpointHit. Call once per
// Breakpoint, right after creation.
func (d *Debugger) wireBreakpointEvents(bp *model.Breakpoint) {
	bp.Bindings.Each(d.root.RootScope, func(bb *model.BreakpointBinding) func() {
		bb.Hit.Use(d.root.RootScope, func(hit bool) func() {
			if hit {
				d.publish(TopicBreakpointHit, BreakpointHitEvent{
					SessionURI: bb.Session().URI(),
					BindingURI: bb.URI(),
					Line:       bb.ActualLine.Get(),
				})
			}
			return nil
		})
		return nil
	})
}
