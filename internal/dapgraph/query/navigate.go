package query

import (
	"fmt"
	"strconv"

	"github.com/dshills/dapgraph/internal/dapgraph/errs"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
	"github.com/tidwall/match"
)

// edgeMembers returns the ordered entity set e exposes under edge
// name, type-switching over the concrete model types rather than
// reflecting over a schema table (§4.6's "Go-idiomatic equivalent" of
// a dynamic-dispatch schema).
func edgeMembers(e model.Entity, name string) ([]model.Entity, error) {
	switch v := e.(type) {
	case *model.Debugger:
		switch name {
		case "sessions":
			return toEntities(v.Sessions.All()), nil
		case "sources":
			out := make([]model.Entity, 0)
			for _, s := range v.AllEntities() {
				if _, ok := s.(*model.Source); ok {
					out = append(out, s)
				}
			}
			return out, nil
		case "breakpoints":
			return toEntities(v.Breakpoints()), nil
		}
	case *model.Session:
		switch name {
		case "threads":
			return toEntities(v.Threads.All()), nil
		case "children", "sessions":
			return toEntities(v.Children.All()), nil
		case "sourcebindings":
			return toEntities(v.SourceBindings.All()), nil
		case "outputs":
			return toEntities(v.Outputs.All()), nil
		case "exceptionfilters":
			return toEntities(v.ExceptionFilters.All()), nil
		}
	case *model.Thread:
		switch name {
		case "stacks":
			return toEntities(v.Stacks.All()), nil
		}
	case *model.Stack:
		switch name {
		case "frames":
			return toEntities(v.Frames.All()), nil
		}
	case *model.Frame:
		switch name {
		case "scopes":
			return toEntities(v.Scopes.All()), nil
		}
	case *model.Scope:
		switch name {
		case "variables":
			return toEntities(v.Variables.All()), nil
		}
	case *model.Variable:
		switch name {
		case "children":
			return toEntities(v.Children.All()), nil
		}
	case *model.Source:
		switch name {
		case "breakpoints":
			return toEntities(v.Breakpoints.All()), nil
		case "bindings", "sourcebindings":
			return toEntities(v.Bindings.All()), nil
		}
	case *model.Breakpoint:
		switch name {
		case "bindings":
			return toEntities(v.Bindings.All()), nil
		}
	}
	return nil, fmt.Errorf("%w: no edge %q on %s", errs.ErrSchemaViolation, name, e.URI())
}

func toEntities[T model.Entity](items []T) []model.Entity {
	out := make([]model.Entity, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}

// edgeMembersByKey is the indexed counterpart of edgeMembers: for the
// edge/type combinations that register a secondary index keyed the
// same way a ":Key" segment matches (see keyValue), it does an O(1)
// Edge.ByIndex lookup instead of materialising every member and
// scanning it with keyValue. ok is false when name has no index for
// e's type, signalling the caller to fall back to the linear path.
func edgeMembersByKey(e model.Entity, name, key string) (members []model.Entity, ok bool) {
	switch v := e.(type) {
	case *model.Debugger:
		if name == "sessions" {
			return toEntities(v.Sessions.ByIndex("id", key)), true
		}
	case *model.Session:
		switch name {
		case "threads":
			return toEntities(v.Threads.ByIndex("id", key)), true
		case "exceptionfilters":
			return toEntities(v.ExceptionFilters.ByIndex("id", key)), true
		}
	case *model.Frame:
		if name == "scopes" {
			return toEntities(v.Scopes.ByIndex("name", key)), true
		}
	case *model.Scope:
		if name == "variables" {
			return toEntities(v.Variables.ByIndex("name", key)), true
		}
	}
	return nil, false
}

// keyValue returns the natural key token an indexed ":Key" segment
// compares against, per target type (§4.7: "restricts to the
// matching-keyed target").
func keyValue(e model.Entity) (string, bool) {
	switch v := e.(type) {
	case *model.Session:
		return v.ID(), true
	case *model.Thread:
		return strconv.Itoa(v.ID), true
	case *model.Scope:
		return v.Name, true
	case *model.Variable:
		return v.Name, true
	case *model.Source:
		return v.Key, true
	case *model.ExceptionFilter:
		return v.FilterID, true
	}
	return "", false
}

// fieldValue returns the string form of e's named field, for filter
// comparison. Booleans render as "true"/"false"; numbers via
// strconv.Itoa.
func fieldValue(e model.Entity, field string) (string, bool) {
	switch v := e.(type) {
	case *model.Session:
		switch field {
		case "name":
			return v.Name.Get(), true
		case "state":
			return v.State.Get().String(), true
		case "id":
			return v.ID(), true
		}
	case *model.Thread:
		switch field {
		case "name":
			return v.Name.Get(), true
		case "state":
			return v.State.Get().String(), true
		case "id":
			return strconv.Itoa(v.ID), true
		case "focused":
			return strconv.FormatBool(v.Focused.Get()), true
		}
	case *model.Frame:
		switch field {
		case "name":
			return v.Name.Get(), true
		case "active":
			return strconv.FormatBool(v.Active.Get()), true
		case "line":
			return strconv.Itoa(v.Line.Get()), true
		}
	case *model.Scope:
		switch field {
		case "name":
			return v.Name, true
		case "expensive":
			return strconv.FormatBool(v.Expensive.Get()), true
		}
	case *model.Variable:
		switch field {
		case "name":
			return v.Name, true
		case "type":
			return v.Type.Get(), true
		case "value":
			return v.Value.Get(), true
		}
	case *model.Source:
		switch field {
		case "key":
			return v.Key, true
		case "path":
			return v.Path.Get(), true
		case "name":
			return v.Name.Get(), true
		}
	case *model.Breakpoint:
		switch field {
		case "enabled":
			return strconv.FormatBool(v.Enabled.Get()), true
		case "line":
			return strconv.Itoa(v.Line.Get()), true
		case "column":
			return strconv.Itoa(v.Column.Get()), true
		}
	case *model.BreakpointBinding:
		switch field {
		case "verified":
			return strconv.FormatBool(v.Verified.Get()), true
		case "hit":
			return strconv.FormatBool(v.Hit.Get()), true
		}
	case *model.Output:
		switch field {
		case "category":
			return string(v.Category), true
		}
	case *model.ExceptionFilter:
		switch field {
		case "id":
			return v.FilterID, true
		case "label":
			return v.Label, true
		case "enabled":
			return strconv.FormatBool(v.Enabled.Get()), true
		}
	}
	return "", false
}

func matchFilter(e model.Entity, f Filter) bool {
	val, ok := fieldValue(e, f.Field)
	if !ok {
		return false
	}
	if f.Glob {
		return match.Match(val, f.Value)
	}
	return val == f.Value
}

// applySegment narrows the current entity set by one URL Segment. A
// ":Key" segment routes through the owning edge's secondary index when
// one is registered for this edge/type pair (O(1) per parent instead
// of a linear keyValue scan over every fetched member).
func applySegment(current []model.Entity, seg Segment) ([]model.Entity, error) {
	var next []model.Entity

	if seg.HasKey {
		for _, e := range current {
			if members, ok := edgeMembersByKey(e, seg.Edge, seg.Key); ok {
				next = append(next, members...)
				continue
			}
			members, err := edgeMembers(e, seg.Edge)
			if err != nil {
				return nil, err
			}
			for _, m := range members {
				if kv, ok := keyValue(m); ok && kv == seg.Key {
					next = append(next, m)
				}
			}
		}
	} else {
		for _, e := range current {
			members, err := edgeMembers(e, seg.Edge)
			if err != nil {
				return nil, err
			}
			next = append(next, members...)
		}
	}

	for _, f := range seg.Filters {
		filtered := next[:0:0]
		for _, e := range next {
			if matchFilter(e, f) {
				filtered = append(filtered, e)
			}
		}
		next = filtered
	}

	if seg.HasIndex {
		idx := seg.Index
		if idx < 0 {
			idx += len(next)
		}
		if idx < 0 || idx >= len(next) {
			return nil, nil
		}
		next = []model.Entity{next[idx]}
	}

	return next, nil
}
