package model

import (
	"context"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/errs"
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
)

// Scope is a named grouping of variables under a Frame (§3). Named
// Scope rather than e.g. VariableScope to match the canonical URI
// grammar's "scope:" prefix; the subscription-cleanup domain of the
// same name lives in the sibling scope package and is never imported
// here by that name to avoid confusion at call sites outside this file.
type Scope struct {
	graph.Base
	frame *Frame

	Name               string
	VariablesReference int

	PresentationHint *graph.Signal[string]
	Expensive        *graph.Signal[bool]

	Variables *graph.Edge[*Variable]

	fetched bool
}

func newScope(frame *Frame, seq int, s dap.Scope) *Scope {
	sc := &Scope{
		Base:               graph.NewBase(scopeURI(frame.session().ID(), frame.ID, seq, s.Name)),
		frame:              frame,
		Name:               s.Name,
		VariablesReference: s.VariablesReference,
		PresentationHint:   graph.NewSignal(s.PresentationHint),
		Expensive:          graph.NewSignal(s.Expensive),
	}
	sc.Variables = graph.NewEdge(func(v *Variable) string { return v.URI() }, nil)
	sc.Variables.Index("name", func(v *Variable) string { return v.Name })
	return sc
}

// Frame returns the owning Frame.
func (s *Scope) Frame() *Frame { return s.frame }

// FetchVariables issues a `variables` request for this scope,
// memoized per (entityURI, "variables"), and upserts Variables.
func (s *Scope) FetchVariables(ctx context.Context) ([]*Variable, error) {
	if s.Deleted() {
		return nil, errs.Wrap(s.URI(), "FetchVariables", errs.ErrDeletedEntity)
	}
	sess := s.frame.session()
	result, err := runAsTask(ctx, func(ctx context.Context) ([]*Variable, error) {
		vars, err := sess.memoVariables(ctx, s.URI())
		if err != nil {
			return nil, err
		}
		out := make([]*Variable, 0, len(vars))
		for _, raw := range vars {
			v := sess.upsertVariable(s.VariablesReference, raw)
			s.Variables.Link(v)
			out = append(out, v)
		}
		s.fetched = true
		return out, nil
	})
	if err != nil {
		return nil, errs.Wrap(s.URI(), "FetchVariables", err)
	}
	return result, nil
}
