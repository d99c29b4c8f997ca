package query

import (
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

// Query evaluates u against d (and, for `@` markers, fc) and returns
// the matching entities, materialised once (§4.7: "Query ... never
// stale, never live").
func Query(d *model.Debugger, fc *FocusContext, u *URL) ([]model.Entity, error) {
	var current []model.Entity
	switch {
	case u.Marker != nil:
		if fc == nil {
			fc = NewFocusContext(d)
		}
		roots, err := fc.resolveMarker(u.Marker)
		if err != nil {
			return nil, err
		}
		current = roots
	default:
		current = []model.Entity{d}
	}

	for _, seg := range u.Segments {
		next, err := applySegment(current, seg)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Resolve auto-detects whether s is a canonical URI or a navigation
// URL and dispatches accordingly, returning the single entity the URI
// names (with an empty slice) or the (possibly multi-element) result
// of evaluating the URL (with a nil single entity, unless exactly one
// result was produced).
func Resolve(d *model.Debugger, fc *FocusContext, s string) (model.Entity, []model.Entity, error) {
	if IsURI(s) {
		e, ok := d.Resolve(s)
		if !ok {
			return nil, nil, nil
		}
		return e, nil, nil
	}

	u, err := Parse(s)
	if err != nil {
		return nil, nil, err
	}
	results, err := Query(d, fc, u)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 1 {
		return results[0], results, nil
	}
	return nil, results, nil
}
