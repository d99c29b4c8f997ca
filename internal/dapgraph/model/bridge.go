package model

import (
	"context"
	"fmt"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
)

// This file implements the event-to-mutation half of the entity
// bridge (C9): translating inbound DAP events into graph mutations.
// The session engine (a separate package, to avoid model importing
// the transport wiring it owns) registers each Apply* function as the
// dap.Client event handler for the matching event name.

func sourceKey(s *dap.Source) string {
	if s == nil {
		return ""
	}
	if s.Path != "" {
		return s.Path
	}
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("ref:%d", s.SourceReference)
}

func applyLoadedSourceFields(src *Source, s *dap.Source) {
	if s.Path != "" {
		src.Path.Set(s.Path)
	}
	if s.Name != "" {
		src.Name.Set(s.Name)
	}
}

// ApplyInitialized populates a session's ExceptionFilters from its
// just-stored Capabilities, one filter per adapter-advertised entry,
// defaulting Enabled to the adapter's own default (§4.8: "populated
// once from Capabilities.ExceptionBreakpointFilters at session-
// initialize time"). Triggering the initial breakpoint push itself is
// the synchroniser's job, which observes this event independently.
func ApplyInitialized(sess *Session) {
	for _, f := range sess.Capabilities.Get().ExceptionBreakpointFilters {
		if _, ok := sess.ExceptionFilters.First(func(ef *ExceptionFilter) bool { return ef.FilterID == f.Filter }); ok {
			continue
		}
		ef := newExceptionFilter(sess, f.Filter, f.Label, f.Default)
		sess.ExceptionFilters.Link(ef)
		sess.register(ef)
	}
}

// ApplyThreadEvent handles a `thread` event: "started" upserts a
// Thread, "exited" marks it exited and, absent deferred cleanup,
// deletes it.
func ApplyThreadEvent(sess *Session, body dap.ThreadEventBody) {
	switch body.Reason {
	case "started":
		sess.findOrCreateThread(body.ThreadID, "")
	case "exited":
		t, ok := sess.Threads.First(func(t *Thread) bool { return t.ID == body.ThreadID })
		if !ok {
			return
		}
		t.State.Set(ThreadExited)
		if !sess.debugger.Options.DeferredThreadCleanup {
			t.delete()
		}
		sess.FirstStoppedThread.Recompute()
	}
}

// ApplyStopped handles a `stopped` event: the session and the named
// thread(s) transition to stopped, a fresh Stack is fetched for each,
// and any breakpoint bindings named in hitBreakpointIds are flagged
// hit (§4.8, §4.9).
func ApplyStopped(ctx context.Context, sess *Session, body dap.StoppedEventBody) {
	sess.State.Set(SessionStopped)

	var targets []*Thread
	if body.ThreadID != 0 {
		targets = append(targets, sess.findOrCreateThread(body.ThreadID, ""))
	}
	if body.AllThreadsStopped {
		for _, t := range sess.Threads.All() {
			already := false
			for _, tt := range targets {
				if tt == t {
					already = true
					break
				}
			}
			if !already {
				targets = append(targets, t)
			}
		}
	}

	for _, t := range targets {
		t.State.Set(ThreadStopped)
		t.Stops.Set(t.Stops.Get() + 1)
		fetchStack(ctx, sess, t)
	}

	if len(body.HitBreakpointIds) > 0 {
		applyHits(sess, body.HitBreakpointIds)
	}

	sess.FirstStoppedThread.Recompute()
}

// fetchStack issues the memoized stackTrace request for t and builds a
// fresh Stack/Frame snapshot from the result. Failures are logged
// rather than propagated: a stop event has already happened and
// cannot be rolled back for a failed follow-up fetch.
func fetchStack(ctx context.Context, sess *Session, t *Thread) {
	frames, err := sess.memoStackTrace(ctx, t.URI())
	if err != nil {
		sess.debugger.Log.Warn("stackTrace for %s: %v", t.URI(), err)
		return
	}

	st := t.pushStack()
	for i, f := range frames {
		var src *Source
		if f.Source != nil {
			src = sess.debugger.Source(sourceKey(f.Source))
			applyLoadedSourceFields(src, f.Source)
		}
		fr := newFrame(st, i, st.Seq, f, src)
		fr.Active.Set(i == 0)
		st.Frames.Link(fr)
		sess.register(fr)
	}
}

// applyHits sets Hit=true on every binding owned by sess whose
// adapter-assigned id appears in ids.
func applyHits(sess *Session, ids []int) {
	for _, bp := range sess.debugger.Breakpoints() {
		for _, bb := range bp.Bindings.All() {
			if bb.Session() != sess {
				continue
			}
			for _, id := range ids {
				if bb.AdapterID.Get() == id {
					bb.Hit.Set(true)
					break
				}
			}
		}
	}
}

// clearHits clears Hit on every binding owned by sess (I7: cleared on
// the next continued event).
func clearHits(sess *Session) {
	for _, bp := range sess.debugger.Breakpoints() {
		for _, bb := range bp.Bindings.All() {
			if bb.Session() == sess && bb.Hit.Get() {
				bb.Hit.Set(false)
			}
		}
	}
}

// ApplyContinued handles a `continued` event: the session and the
// named thread(s) transition to running, their stack history is
// invalidated (a fresh stop will rebuild it), and hit flags clear.
func ApplyContinued(sess *Session, body dap.ContinuedEventBody) {
	sess.State.Set(SessionRunning)

	if body.AllThreadsContinued {
		for _, t := range sess.Threads.All() {
			t.State.Set(ThreadRunning)
			t.invalidateStacks()
		}
	} else if t, ok := sess.Threads.First(func(t *Thread) bool { return t.ID == body.ThreadID }); ok {
		t.State.Set(ThreadRunning)
		t.invalidateStacks()
	}

	clearHits(sess)
	sess.FirstStoppedThread.Recompute()
}

// ApplyTerminated handles a `terminated` event.
func ApplyTerminated(sess *Session) { sess.terminate() }

// ApplyExited handles an `exited` event; the exit code itself is
// observable only via Session.Err/logging, matching the base protocol
// which carries it purely for diagnostic display.
func ApplyExited(sess *Session, body dap.ExitedEventBody) {
	if body.ExitCode != 0 {
		sess.debugger.Log.Info("session %s exited with code %d", sess.ID(), body.ExitCode)
	}
	sess.terminate()
}

// ApplyOutput handles an `output` event, appending a new Output.
func ApplyOutput(sess *Session, body dap.OutputEventBody) {
	category := OutputCategory(body.Category)
	if category == "" {
		category = OutputConsole
	}
	o := newOutput(sess, category, body.Output, sess.nextOutputSeq())
	sess.Outputs.Link(o)
	sess.register(o)
}

// ApplyBreakpointEvent handles a `breakpoint` event, updating the
// matching BreakpointBinding (matched by adapter-assigned id) or
// removing it on reason "removed". A breakpoint event naming an id
// with no matching binding (an adapter-initiated breakpoint this
// authoritative model never created) is logged and otherwise ignored.
func ApplyBreakpointEvent(sess *Session, body dap.BreakpointEventBody) {
	var match *BreakpointBinding
	for _, bp := range sess.debugger.Breakpoints() {
		for _, bb := range bp.Bindings.All() {
			if bb.Session() == sess && bb.AdapterID.Get() == body.Breakpoint.ID {
				match = bb
				break
			}
		}
		if match != nil {
			break
		}
	}
	if match == nil {
		sess.debugger.Log.Debug("breakpoint event for unknown adapter id %d", body.Breakpoint.ID)
		return
	}
	if body.Reason == "removed" {
		match.delete()
		return
	}
	match.ApplyVerification(body.Breakpoint.ID, body.Breakpoint.Verified, body.Breakpoint.Line, body.Breakpoint.Column, body.Breakpoint.Message)
}

// ApplyLoadedSource handles a `loadedSource` event, upserting the
// named Source (§4.9: "loadedSource bridge rule").
func ApplyLoadedSource(sess *Session, body dap.LoadedSourceEventBody) {
	src := sess.debugger.Source(sourceKey(&body.Source))
	applyLoadedSourceFields(src, &body.Source)
}

// ApplyProcess handles a `process` event, recording process identity
// on Session.ProcessInfo.
func ApplyProcess(sess *Session, body dap.ProcessEventBody) {
	sess.ProcessInfo.Set(ProcessInfo{
		Name:            body.Name,
		SystemProcessID: body.SystemProcessID,
		IsLocalProcess:  body.IsLocalProcess,
		StartMethod:     body.StartMethod,
	})
}

// ApplyModule handles a `module` event, appending or replacing the
// named module in Session.Modules.
func ApplyModule(sess *Session, body dap.ModuleEventBody) {
	id := fmt.Sprintf("%v", body.Module.ID)
	rec := Module{ID: id, Name: body.Module.Name, Path: body.Module.Path, Version: body.Module.Version}

	mods := sess.Modules.Get()
	out := make([]Module, 0, len(mods)+1)
	replaced := false
	for _, m := range mods {
		if m.ID == id {
			if body.Reason != "removed" {
				out = append(out, rec)
				replaced = true
			}
			continue
		}
		out = append(out, m)
	}
	if !replaced && body.Reason != "removed" {
		out = append(out, rec)
	}
	sess.Modules.Set(out)
}

// ApplyInvalidated handles an `invalidated` event by dropping cached
// stack state for the named thread (or every thread, if unscoped),
// forcing the next fetch to go back to the adapter.
func ApplyInvalidated(sess *Session, body dap.InvalidatedEventBody) {
	if body.ThreadID != 0 {
		if t, ok := sess.Threads.First(func(t *Thread) bool { return t.ID == body.ThreadID }); ok {
			t.invalidateStacks()
		}
		return
	}
	for _, t := range sess.Threads.All() {
		t.invalidateStacks()
	}
}
