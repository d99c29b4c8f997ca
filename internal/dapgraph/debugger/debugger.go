// Package debugger assembles the model, query, session and bpsync
// layers into the consumer-facing facade (§6): a single Debugger value
// a host application constructs, registers adapters on, starts
// sessions through, and queries/watches via URIs and URLs.
package debugger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/dapgraph/internal/dapgraph/bpsync"
	"github.com/dshills/dapgraph/internal/dapgraph/event"
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
	"github.com/dshills/dapgraph/internal/dapgraph/logging"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
	"github.com/dshills/dapgraph/internal/dapgraph/query"
	"github.com/dshills/dapgraph/internal/dapgraph/scope"
	"github.com/dshills/dapgraph/internal/dapgraph/session"
)

// AdapterConfig and LaunchConfig are re-exported from session so a
// consumer only ever imports this package.
type AdapterConfig = session.AdapterConfig
type LaunchConfig = session.LaunchConfig
type BreakpointOption = model.BreakpointOption
type FunctionBreakpointSpec = bpsync.FunctionBreakpointSpec

// SourceRef identifies a Source the way AddBreakpoint's caller names
// it: the same key passed to Debugger.Resolve for a source:<key> URI,
// typically an adapter-relative path.
type SourceRef = string

var (
	WithCondition    = model.WithCondition
	WithHitCondition = model.WithHitCondition
	WithLogMessage   = model.WithLogMessage
	WithEnabled      = model.WithEnabled
)

// Option configures a Debugger at construction time.
type Option func(*config)

type config struct {
	options model.Options
	log     *logging.Logger
}

// WithOptions overrides the Open-Question defaults (stack retention,
// deferred thread cleanup, binding preservation on terminate).
func WithOptions(opts model.Options) Option {
	return func(c *config) { c.options = opts }
}

// WithLogger overrides the process-wide default logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *config) { c.log = log }
}

// Debugger is the top-level facade over the entity graph, the query
// layer and the session engine.
type Debugger struct {
	root   *model.Debugger
	engine *session.Engine
	sync   *bpsync.Synchroniser
	focus  *query.FocusContext
	bus    event.Bus
}

// NewDebugger constructs a Debugger ready to register adapters and
// start sessions.
func NewDebugger(opts ...Option) *Debugger {
	cfg := config{options: model.DefaultOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}

	root := model.NewRoot(cfg.options, cfg.log)
	engine := session.NewEngine(root)
	synchroniser := bpsync.New(root)
	engine.SetBeforeConfigurationDone(synchroniser.BeforeConfigurationDone)

	bus := event.NewBus()
	if err := bus.Start(); err != nil {
		root.Log.Warn("event bus start: %v", err)
	}

	d := &Debugger{
		root:   root,
		engine: engine,
		sync:   synchroniser,
		focus:  query.NewFocusContext(root),
		bus:    bus,
	}
	d.wireEvents()
	return d
}

// RegisterAdapter names an adapter configuration for later use by a
// LaunchConfig.
func (d *Debugger) RegisterAdapter(name string, cfg AdapterConfig) {
	d.engine.RegisterAdapter(name, cfg)
}

// Start begins a root session against a registered adapter, running
// the full initialize/launch-or-attach/configurationDone sequence
// (§4.8) before returning.
func (d *Debugger) Start(ctx context.Context, launch LaunchConfig) (*model.Session, error) {
	return d.engine.Start(ctx, launch)
}

// AddBreakpoint registers a new authoritative Breakpoint at
// source/line and pushes it to every running session (§4.10).
func (d *Debugger) AddBreakpoint(source SourceRef, line int, opts ...BreakpointOption) *model.Breakpoint {
	src := d.root.Source(source)
	bp := model.NewBreakpoint(d.root, src, line, opts...)
	d.sync.Track(bp)
	d.wireBreakpointEvents(bp)
	return bp
}

// RemoveBreakpoint deletes bp from the authoritative set. The model
// layer's delete cascade already clears its bindings locally; the
// synchroniser needs no further adapter round-trip since a deleted
// Breakpoint is simply absent from the next syncSource call for its
// source.
func (d *Debugger) RemoveBreakpoint(bp *model.Breakpoint) {
	d.root.RemoveBreakpoint(bp)
}

// SetFunctionBreakpoints replaces the authoritative function
// breakpoint set, pushed to every session whose adapter supports it.
func (d *Debugger) SetFunctionBreakpoints(specs []FunctionBreakpointSpec) {
	d.sync.SetFunctionBreakpoints(specs)
}

// Resolve auto-detects a URI or URL and returns the matching
// entity/entities (§4.7, §6).
func (d *Debugger) Resolve(s string) (model.Entity, []model.Entity, error) {
	return query.Resolve(d.root, d.focus, s)
}

// Query evaluates a navigation URL once, returning its current
// result set without installing any subscription.
func (d *Debugger) Query(url string) ([]model.Entity, error) {
	u, err := query.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("debugger: query %q: %w", url, err)
	}
	return query.Query(d.root, d.focus, u)
}

// Watch evaluates url and returns a live view that refreshes as the
// session tree changes, registered in sc so the caller can tear the
// subscription down by cancelling sc.
func (d *Debugger) Watch(sc *scope.Scope, url string) (*graph.CollectionRollup[model.Entity], error) {
	u, err := query.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("debugger: watch %q: %w", url, err)
	}
	return query.Watch(d.root, d.focus, sc, u)
}

// Context returns the debugger's focus context, exposing the
// Session/Thread/Frame the `@` markers resolve relative to.
func (d *Debugger) Context() *query.FocusContext { return d.focus }

// Focus sets the debugger's focused entity by URI, the value `@`
// markers in a URL resolve relative to.
func (d *Debugger) Focus(uri string) { d.root.FocusedURL.Set(uri) }

// Dispose terminates every session and releases every resource this
// Debugger owns.
func (d *Debugger) Dispose() {
	for _, sess := range d.root.Sessions.All() {
		if sess.Parent != nil {
			continue
		}
		_ = sess.Disconnect(context.Background())
	}
	d.engine.Shutdown()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = d.bus.Stop(stopCtx)
	d.root.RootScope.Cancel()
}

// persistedBreakpoints is the versioned envelope ExportBreakpoints
// writes and ImportBreakpoints reads, mirroring the host codebase's
// disk-backed BreakpointManager.Save/Load shape (§6).
type persistedBreakpoints struct {
	Version     int                   `json:"version"`
	Breakpoints []persistedBreakpoint `json:"breakpoints"`
}

type persistedBreakpoint struct {
	Source    string `json:"source"`
	Line      int    `json:"line"`
	Column    int    `json:"column,omitempty"`
	Condition string `json:"condition,omitempty"`
	Enabled   bool   `json:"enabled"`
}

const persistedBreakpointsVersion = 1

// ExportBreakpoints serialises the authoritative Breakpoint set to the
// versioned JSON envelope consumers may persist across restarts.
func (d *Debugger) ExportBreakpoints() ([]byte, error) {
	envelope := persistedBreakpoints{Version: persistedBreakpointsVersion}
	for _, bp := range d.root.Breakpoints() {
		envelope.Breakpoints = append(envelope.Breakpoints, persistedBreakpoint{
			Source:    bp.Source().Key,
			Line:      bp.Line.Get(),
			Column:    bp.Column.Get(),
			Condition: bp.Condition.Get(),
			Enabled:   bp.Enabled.Get(),
		})
	}
	return json.Marshal(envelope)
}

// ImportBreakpoints restores a set previously written by
// ExportBreakpoints, calling AddBreakpoint per entry.
func (d *Debugger) ImportBreakpoints(data []byte) error {
	var envelope persistedBreakpoints
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("debugger: import breakpoints: %w", err)
	}
	for _, pb := range envelope.Breakpoints {
		opts := []BreakpointOption{WithEnabled(pb.Enabled)}
		if pb.Condition != "" {
			opts = append(opts, WithCondition(pb.Condition))
		}
		d.AddBreakpoint(pb.Source, pb.Line, opts...)
	}
	return nil
}
