// Package bpsync implements the breakpoint synchroniser (C10): it
// keeps each session's setBreakpoints/setFunctionBreakpoints/
// setExceptionBreakpoints state converged on the authoritative
// Breakpoint and ExceptionFilter entities the consumer mutates through
// model, serialising the calls for a given (session, source) pair and
// discarding a superseded in-flight response.
package bpsync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
	"github.com/dshills/dapgraph/internal/dapgraph/task"
)

// backgroundSyncTimeout bounds a resync triggered from a change hook,
// which runs on its own goroutine outside any caller's context.
const backgroundSyncTimeout = 10 * time.Second

// FunctionBreakpointSpec describes one function breakpoint in the
// authoritative set a consumer registers via SetFunctionBreakpoints.
// The base protocol gives these no adapter-assigned binding identity
// worth modeling as a graph entity (unlike line breakpoints, which get
// a BreakpointBinding per session); the synchroniser pushes the set
// and discards the adapter's response, so function breakpoints are
// fire-and-forget relative to line breakpoints. A failed request is
// returned as an error.
type FunctionBreakpointSpec struct {
	Name         string
	Condition    string
	HitCondition string
}

type syncKey struct {
	session string
	source  string
}

// Synchroniser owns the per-(session,source) serialisation state and
// the authoritative function-breakpoint set.
type Synchroniser struct {
	debugger *model.Debugger

	mu       sync.Mutex
	mutexes  map[syncKey]*task.Mutex
	gens     map[syncKey]*atomic.Int64
	exceptAt map[string]bool // session URIs already wired for exception-filter change hooks

	fnMu   sync.Mutex
	fnSpec []FunctionBreakpointSpec
}

// New constructs a Synchroniser bound to d.
func New(d *model.Debugger) *Synchroniser {
	return &Synchroniser{
		debugger: d,
		mutexes:  make(map[syncKey]*task.Mutex),
		gens:     make(map[syncKey]*atomic.Int64),
		exceptAt: make(map[string]bool),
	}
}

func (s *Synchroniser) keyFor(sess *model.Session, src *model.Source) syncKey {
	return syncKey{session: sess.URI(), source: src.Key}
}

func (s *Synchroniser) lockFor(key syncKey) (*task.Mutex, *atomic.Int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.mutexes[key]
	if !ok {
		mu = task.NewMutex()
		s.mutexes[key] = mu
	}
	gen, ok := s.gens[key]
	if !ok {
		gen = &atomic.Int64{}
		s.gens[key] = gen
	}
	return mu, gen
}

// Track installs the change hook that keeps bp's bindings converged
// across every running session and performs the first push. Call this
// once, right after a Breakpoint is created.
func (s *Synchroniser) Track(bp *model.Breakpoint) {
	bp.SetChangeHook(func() { s.syncSourceEverywhere(bp.Source()) })
	s.syncSourceEverywhere(bp.Source())
}

// SetFunctionBreakpoints replaces the authoritative function breakpoint
// set and pushes it to every running session whose adapter advertises
// supportsFunctionBreakpoints.
func (s *Synchroniser) SetFunctionBreakpoints(specs []FunctionBreakpointSpec) {
	s.fnMu.Lock()
	s.fnSpec = append([]FunctionBreakpointSpec(nil), specs...)
	s.fnMu.Unlock()

	for _, sess := range s.debugger.Sessions.All() {
		if sess.State.Get() != model.SessionRunning {
			continue
		}
		go func(sess *model.Session) {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundSyncTimeout)
			defer cancel()
			if err := s.syncFunctionBreakpoints(ctx, sess); err != nil {
				s.debugger.Log.Warn("setFunctionBreakpoints for %s: %v", sess.URI(), err)
			}
		}(sess)
	}
}

func (s *Synchroniser) syncSourceEverywhere(src *model.Source) {
	for _, sess := range s.debugger.Sessions.All() {
		if sess.State.Get() != model.SessionRunning {
			continue
		}
		go func(sess *model.Session) {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundSyncTimeout)
			defer cancel()
			if err := s.syncSource(ctx, sess, src); err != nil {
				s.debugger.Log.Warn("setBreakpoints for %s/%s: %v", sess.URI(), src.Key, err)
			}
		}(sess)
	}
}

// BeforeConfigurationDone is the session.Engine hook (§4.8 step 4):
// it wires sess's exception filters (already populated by
// model.ApplyInitialized by the time this runs) and performs the
// session's first full sync before configurationDone is sent.
func (s *Synchroniser) BeforeConfigurationDone(ctx context.Context, sess *model.Session) error {
	s.wireExceptionFilters(sess)
	return s.Sync(ctx, sess)
}

// Sync pushes the full authoritative state (line breakpoints grouped
// by source, function breakpoints, exception filters) to sess. Call
// this directly to force a resync, e.g. after changing many
// breakpoints at once.
func (s *Synchroniser) Sync(ctx context.Context, sess *model.Session) error {
	sources := make(map[*model.Source]struct{})
	for _, bp := range s.debugger.Breakpoints() {
		sources[bp.Source()] = struct{}{}
	}

	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for src := range sources {
		note(s.syncSource(ctx, sess, src))
	}
	note(s.syncFunctionBreakpoints(ctx, sess))
	note(s.syncExceptionFilters(ctx, sess))
	return firstErr
}

func (s *Synchroniser) wireExceptionFilters(sess *model.Session) {
	s.mu.Lock()
	already := s.exceptAt[sess.URI()]
	s.exceptAt[sess.URI()] = true
	s.mu.Unlock()
	if already {
		return
	}

	for _, f := range sess.ExceptionFilters.All() {
		f.SetChangeHook(func() {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundSyncTimeout)
			defer cancel()
			if err := s.syncExceptionFilters(ctx, sess); err != nil {
				s.debugger.Log.Warn("setExceptionBreakpoints for %s: %v", sess.URI(), err)
			}
		})
	}
}

// syncSource issues setBreakpoints for src against sess so its
// bindings converge on src.EnabledBreakpoints(), serialised per
// (sess, src) and discarding a superseded response (O3).
func (s *Synchroniser) syncSource(ctx context.Context, sess *model.Session, src *model.Source) error {
	key := s.keyFor(sess, src)
	mu, gen := s.lockFor(key)
	if err := mu.Lock(ctx); err != nil {
		return err
	}
	defer mu.Unlock()
	myGen := gen.Add(1)

	all := src.Breakpoints.All()
	enabled := src.EnabledBreakpoints()

	enabledSet := make(map[*model.Breakpoint]bool, len(enabled))
	for _, bp := range enabled {
		enabledSet[bp] = true
	}

	hadBindings := false
	for _, bp := range all {
		for _, bb := range bp.Bindings.All() {
			if bb.Session() == sess {
				hadBindings = true
			}
		}
	}
	if len(enabled) == 0 && !hadBindings {
		return nil
	}

	for _, bp := range all {
		if enabledSet[bp] {
			continue
		}
		for _, bb := range bp.Bindings.All() {
			if bb.Session() == sess {
				bb.delete()
			}
		}
	}

	descriptors := make([]dap.SourceBreakpoint, len(enabled))
	for i, bp := range enabled {
		descriptors[i] = dap.SourceBreakpoint{
			Line:         bp.Line.Get(),
			Column:       bp.Column.Get(),
			Condition:    bp.Condition.Get(),
			HitCondition: bp.HitCondition.Get(),
			LogMessage:   bp.LogMessage.Get(),
		}
	}

	resp, err := sess.Client.SetBreakpoints(ctx, dap.SetBreakpointsArguments{
		Source:      dap.Source{Path: src.Path.Get(), Name: src.Name.Get()},
		Breakpoints: descriptors,
	})
	if err != nil {
		return err
	}

	if gen.Load() != myGen {
		return nil
	}

	for i, bp := range enabled {
		if i >= len(resp) {
			break
		}
		r := resp[i]
		bb, ok := bp.Bindings.First(func(bb *model.BreakpointBinding) bool { return bb.Session() == sess })
		if !ok {
			bb = model.NewBreakpointBinding(bp, sess)
		}
		bb.ApplyVerification(r.ID, r.Verified, r.Line, r.Column, r.Message)
	}
	return nil
}

func (s *Synchroniser) syncFunctionBreakpoints(ctx context.Context, sess *model.Session) error {
	if !sess.Capabilities.Get().SupportsFunctionBreakpoints {
		return nil
	}
	s.fnMu.Lock()
	specs := append([]FunctionBreakpointSpec(nil), s.fnSpec...)
	s.fnMu.Unlock()
	if len(specs) == 0 {
		return nil
	}

	breakpoints := make([]dap.FunctionBreakpoint, len(specs))
	for i, spec := range specs {
		breakpoints[i] = dap.FunctionBreakpoint{
			Name:         spec.Name,
			Condition:    spec.Condition,
			HitCondition: spec.HitCondition,
		}
	}
	_, err := sess.Client.SetFunctionBreakpoints(ctx, dap.SetFunctionBreakpointsArguments{Breakpoints: breakpoints})
	return err
}

func (s *Synchroniser) syncExceptionFilters(ctx context.Context, sess *model.Session) error {
	caps := sess.Capabilities.Get()
	var ids []string
	var opts []dap.ExceptionFilterOptions
	for _, f := range sess.ExceptionFilters.All() {
		if !f.Enabled.Get() {
			continue
		}
		ids = append(ids, f.FilterID)
		if caps.SupportsExceptionFilterOptions && f.Condition.Get() != "" {
			opts = append(opts, dap.ExceptionFilterOptions{FilterID: f.FilterID, Condition: f.Condition.Get()})
		}
	}
	return sess.Client.SetExceptionBreakpoints(ctx, dap.SetExceptionBreakpointsArguments{
		Filters:       ids,
		FilterOptions: opts,
	})
}
