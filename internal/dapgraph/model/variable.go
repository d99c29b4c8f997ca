package model

import (
	"context"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/errs"
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
)

// Variable is a named value, possibly with nested children reachable
// through an adapter-assigned variablesReference (§3).
type Variable struct {
	graph.Base
	session *Session

	Name               string
	VariablesReference int

	Value        *graph.Signal[string]
	Type         *graph.Signal[string]
	EvaluateName *graph.Signal[string]

	Children *graph.Edge[*Variable]

	// containerRef is the variablesReference of the Scope or parent
	// Variable this variable was fetched under; setVariable addresses
	// the container, not the (possibly zero, for a leaf) variable's own
	// reference.
	containerRef int

	fetched bool
}

func newVariable(sess *Session, containerRef int, v dap.Variable) *Variable {
	vr := &Variable{
		Base:               graph.NewBase(variableURI(sess.ID(), v.VariablesReference, v.Name)),
		session:            sess,
		Name:               v.Name,
		VariablesReference: v.VariablesReference,
		containerRef:       containerRef,
		Value:              graph.NewSignal(v.Value),
		Type:               graph.NewSignal(v.Type),
		EvaluateName:       graph.NewSignal(v.EvaluateName),
	}
	vr.Children = graph.NewEdge(func(c *Variable) string { return c.URI() }, nil)
	return vr
}

// FetchChildren issues a `variables` request for this variable's
// reference, memoized per (entityURI, "children") so concurrent
// fetches coalesce (P5/O4), and upserts Children.
func (v *Variable) FetchChildren(ctx context.Context) ([]*Variable, error) {
	if v.VariablesReference == 0 {
		return nil, nil
	}
	if v.Deleted() {
		return nil, errs.Wrap(v.URI(), "FetchChildren", errs.ErrDeletedEntity)
	}

	result, err := runAsTask(ctx, func(ctx context.Context) ([]*Variable, error) {
		vars, err := v.session.memoVariables(ctx, v.URI())
		if err != nil {
			return nil, err
		}
		out := make([]*Variable, 0, len(vars))
		for _, raw := range vars {
			child := v.session.upsertVariable(v.VariablesReference, raw)
			v.Children.Link(child)
			out = append(out, child)
		}
		v.fetched = true
		return out, nil
	})
	if err != nil {
		return nil, errs.Wrap(v.URI(), "FetchChildren", err)
	}
	return result, nil
}

// SetValue issues a `setVariable` request, gated on
// Capabilities.SupportsSetVariable, and updates Value/Type on success.
func (v *Variable) SetValue(ctx context.Context, newValue string) error {
	if !v.session.Capabilities.Get().SupportsSetVariable {
		return errs.Wrap(v.URI(), "SetValue", &errs.CapabilityError{Operation: "setVariable", Capability: "supportsSetVariable"})
	}
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		body, err := v.session.Client.SetVariable(ctx, dap.SetVariableArguments{
			VariablesReference: v.parentVariablesReference(),
			Name:               v.Name,
			Value:              newValue,
		})
		if err != nil {
			return struct{}{}, err
		}
		v.Value.Set(body.Value)
		if body.Type != "" {
			v.Type.Set(body.Type)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return errs.Wrap(v.URI(), "SetValue", err)
	}
	return nil
}

// parentVariablesReference is the reference of the scope/variable this
// variable was fetched under, which setVariable addresses by.
func (v *Variable) parentVariablesReference() int {
	// The reference a setVariable call addresses is the *container's*
	// reference, not this variable's own (a leaf variable's own
	// VariablesReference is 0). Callers fetch variables through a Scope
	// or a parent Variable, both of which stamp this field in upsert.
	return v.containerRef
}
