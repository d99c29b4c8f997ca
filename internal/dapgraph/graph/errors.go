package graph

import "errors"

// ErrSchemaViolation mirrors errs.ErrSchemaViolation for graph-internal
// checks that don't want to import the errs package (avoided here only
// to keep graph dependency-free; callers at the model layer wrap this
// into errs.ErrSchemaViolation where appropriate).
var ErrSchemaViolation = errors.New("graph: schema violation")
