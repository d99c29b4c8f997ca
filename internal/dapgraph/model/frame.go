package model

import (
	"context"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/errs"
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
)

// Frame is one activation record in a Stack (§3, §3.1).
type Frame struct {
	graph.Base
	stack *Stack

	ID  int
	Seq int // disambiguates the URI across successive fetches of the same adapter frame id

	Index            *graph.Signal[int]
	Name             *graph.Signal[string]
	Line             *graph.Signal[int]
	Column           *graph.Signal[int]
	EndLine          *graph.Signal[int]
	EndColumn        *graph.Signal[int]
	PresentationHint *graph.Signal[string]
	Source           *graph.Signal[*Source]
	Active           *graph.Signal[bool]

	Scopes *graph.Edge[*Scope]

	scopeSeq int
	fetched  bool
}

func newFrame(stack *Stack, index, seq int, f dap.StackFrame, src *Source) *Frame {
	fr := &Frame{
		Base:             graph.NewBase(frameURI(stack.session().ID(), f.ID, seq)),
		stack:            stack,
		ID:               f.ID,
		Seq:              seq,
		Index:            graph.NewSignal(index),
		Name:             graph.NewSignal(f.Name),
		Line:             graph.NewSignal(f.Line),
		Column:           graph.NewSignal(f.Column),
		EndLine:          graph.NewSignal(f.EndLine),
		EndColumn:        graph.NewSignal(f.EndColumn),
		PresentationHint: graph.NewSignal(f.PresentationHint),
		Source:           graph.NewSignal(src),
		Active:           graph.NewSignal(false),
	}
	fr.Scopes = graph.NewEdge(func(s *Scope) string { return s.URI() }, nil)
	fr.Scopes.Index("name", func(s *Scope) string { return s.Name })
	return fr
}

func (f *Frame) session() *Session { return f.stack.session() }

// Stack returns the owning Stack.
func (f *Frame) Stack() *Stack { return f.stack }

// FetchScopes issues a `scopes` request for this frame, memoized per
// (entityURI, "scopes").
func (f *Frame) FetchScopes(ctx context.Context) ([]*Scope, error) {
	if f.Deleted() {
		return nil, errs.Wrap(f.URI(), "FetchScopes", errs.ErrDeletedEntity)
	}
	sess := f.session()
	result, err := runAsTask(ctx, func(ctx context.Context) ([]*Scope, error) {
		raws, err := sess.memoScopes(ctx, f.URI())
		if err != nil {
			return nil, err
		}
		out := make([]*Scope, 0, len(raws))
		for _, raw := range raws {
			f.scopeSeq++
			sc := newScope(f, f.scopeSeq, raw)
			f.Scopes.Link(sc)
			sess.register(sc)
			out = append(out, sc)
		}
		f.fetched = true
		return out, nil
	})
	if err != nil {
		return nil, errs.Wrap(f.URI(), "FetchScopes", err)
	}
	return result, nil
}

// Evaluate issues an `evaluate` request in this frame's context.
func (f *Frame) Evaluate(ctx context.Context, expr, evalContext string) (*dap.EvaluateResponseBody, error) {
	result, err := runAsTask(ctx, func(ctx context.Context) (*dap.EvaluateResponseBody, error) {
		return f.session().Client.Evaluate(ctx, dap.EvaluateArguments{
			Expression: expr,
			FrameID:    f.ID,
			Context:    evalContext,
		})
	})
	if err != nil {
		return nil, errs.Wrap(f.URI(), "Evaluate", err)
	}
	return result, nil
}

// RestartFrame restarts execution at this frame (gated on
// Capabilities.SupportsRestartFrame).
func (f *Frame) RestartFrame(ctx context.Context) error {
	if !f.session().Capabilities.Get().SupportsRestartFrame {
		return errs.Wrap(f.URI(), "RestartFrame", &errs.CapabilityError{Operation: "restartFrame", Capability: "supportsRestartFrame"})
	}
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := f.session().Client.Request(ctx, "restartFrame", map[string]int{"frameId": f.ID})
		return struct{}{}, err
	})
	if err != nil {
		return errs.Wrap(f.URI(), "RestartFrame", err)
	}
	return nil
}

// StepInTargets lists the valid stepIn targets for this frame (gated
// on Capabilities.SupportsStepInTargetsRequest).
func (f *Frame) StepInTargets(ctx context.Context) ([]map[string]any, error) {
	if !f.session().Capabilities.Get().SupportsStepInTargetsRequest {
		return nil, errs.Wrap(f.URI(), "StepInTargets", &errs.CapabilityError{Operation: "stepInTargets", Capability: "supportsStepInTargetsRequest"})
	}
	result, err := runAsTask(ctx, func(ctx context.Context) ([]map[string]any, error) {
		body, err := f.session().Client.Request(ctx, "stepInTargets", map[string]int{"frameId": f.ID})
		if err != nil {
			return nil, err
		}
		return decodeTargets(body)
	})
	if err != nil {
		return nil, errs.Wrap(f.URI(), "StepInTargets", err)
	}
	return result, nil
}

// Goto jumps execution to targetID (gated on
// Capabilities.SupportsGotoTargetsRequest).
func (f *Frame) Goto(ctx context.Context, targetID int) error {
	if !f.session().Capabilities.Get().SupportsGotoTargetsRequest {
		return errs.Wrap(f.URI(), "Goto", &errs.CapabilityError{Operation: "goto", Capability: "supportsGotoTargetsRequest"})
	}
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := f.session().Client.Request(ctx, "goto", map[string]int{
			"threadId": f.stack.thread.ID,
			"targetId": targetID,
		})
		return struct{}{}, err
	})
	if err != nil {
		return errs.Wrap(f.URI(), "Goto", err)
	}
	return nil
}
