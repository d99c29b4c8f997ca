package model

import (
	"context"
	"encoding/json"

	"github.com/dshills/dapgraph/internal/dapgraph/task"
)

// runAsTask spawns fn on the cooperative task runtime (C4) and awaits
// it, recovering the concrete type task.Spawn's any-typed signature
// erases. Every entity method in this package routes its protocol call
// through here so a caller that cancels ctx observes the same
// suspension-point semantics task.Await gives any other awaited task.
func runAsTask[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	t := task.Spawn(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	result, err := t.Await(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

// decodeTargets decodes the generic `targets` array a stepInTargets or
// gotoTargets response body carries, neither of which is common enough
// across adapters to warrant a dedicated struct in protocol.go.
func decodeTargets(body json.RawMessage) ([]map[string]any, error) {
	var wrapper struct {
		Targets []map[string]any `json:"targets"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Targets, nil
}
