package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
	"github.com/dshills/dapgraph/internal/dapgraph/process"
	"github.com/dshills/dapgraph/internal/dapgraph/task"
)

// terminateGrace bounds how long a stdio-spawned adapter process is
// given to exit on its own after its session reaches Terminated before
// the engine escalates to a kill, mirroring process.Supervisor's own
// terminate-then-kill pattern (Shutdown).
const terminateGrace = 3 * time.Second

// BeforeConfigurationDoneFunc runs once a session has received its
// `initialized` event and before `configurationDone` is sent, giving a
// breakpoint synchroniser (C10) a chance to push the authoritative set
// first.
type BeforeConfigurationDoneFunc func(ctx context.Context, sess *model.Session) error

// Engine drives the startup and hierarchical-spawn lifecycle (§4.8) on
// top of a model.Debugger: resolving adapter configurations, building
// transports, running the initialize/launch-or-attach/configurationDone
// handshake, and wiring the entity bridge for every session it starts,
// including js-debug-style children spawned via a `startDebugging`
// reverse request.
type Engine struct {
	debugger   *model.Debugger
	supervisor *process.Supervisor

	adapters map[string]AdapterConfig

	beforeConfigurationDone BeforeConfigurationDoneFunc

	// procBySession tracks the supervised process backing a "stdio"
	// session, if any, so termination can stop it.
	procBySession map[string]*process.Process
}

// NewEngine constructs an Engine bound to d.
func NewEngine(d *model.Debugger) *Engine {
	return &Engine{
		debugger:      d,
		supervisor:    process.NewSupervisor(process.WithLogger(d.Log.WithComponent("process"))),
		adapters:      make(map[string]AdapterConfig),
		procBySession: make(map[string]*process.Process),
	}
}

// AdapterExitError reports that a stdio adapter process ended without
// the engine having asked it to, surfaced on Session.Err so a consumer
// can distinguish "the adapter crashed" from a clean Disconnect.
type AdapterExitError struct {
	Adapter  string
	Reason   process.ExitReason
	ExitCode int
}

func (e *AdapterExitError) Error() string {
	return fmt.Sprintf("adapter %q exited unexpectedly (%s, code %d)", e.Adapter, e.Reason, e.ExitCode)
}

// RegisterAdapter names an adapter configuration for later use by
// LaunchConfig.Adapter.
func (e *Engine) RegisterAdapter(name string, cfg AdapterConfig) {
	e.adapters[name] = cfg
}

// SetBeforeConfigurationDone installs the hook run after `initialized`
// and before `configurationDone` for every session this engine starts,
// including children.
func (e *Engine) SetBeforeConfigurationDone(fn BeforeConfigurationDoneFunc) {
	e.beforeConfigurationDone = fn
}

// Shutdown stops every process this engine has spawned, giving each
// terminateGrace to exit before escalating.
func (e *Engine) Shutdown() {
	e.supervisor.Shutdown(terminateGrace)
}

// Start begins a root session (Parent nil) against launch.Adapter.
func (e *Engine) Start(ctx context.Context, launch LaunchConfig) (*model.Session, error) {
	return e.start(ctx, nil, launch)
}

// templateVars returns the template variables substituted into an
// adapter configuration and its launch arguments. The map is empty, so
// no ${name} placeholder is replaced from it.
func (e *Engine) templateVars() map[string]string {
	return map[string]string{}
}

func (e *Engine) start(ctx context.Context, parent *model.Session, launch LaunchConfig) (*model.Session, error) {
	cfg, ok := e.adapters[launch.Adapter]
	if !ok {
		return nil, fmt.Errorf("session: unregistered adapter %q", launch.Adapter)
	}

	vars := e.templateVars()
	cfg = resolveConfig(cfg, vars)
	args, err := resolveLaunchArgs(launch.Args, vars)
	if err != nil {
		return nil, err
	}

	transport, proc, err := buildTransport(e.supervisor, launch.Adapter, cfg)
	if err != nil {
		return nil, err
	}

	client := dap.NewClient(transport)
	sess := model.NewSession(e.debugger, parent, launch.Adapter, client)

	if proc != nil {
		e.procBySession[sess.URI()] = proc
	}
	e.watchProcessExit(sess, proc)
	e.watchAdapterCrash(sess, proc, launch.Adapter)

	initialized := task.NewEvent[struct{}]()
	wireBridge(client, sess, func() { initialized.Set(struct{}{}) })
	e.registerStartDebugging(sess, launch)

	caps, err := client.Initialize(ctx, dap.InitializeRequestArguments{
		ClientID:                     "dapgraph",
		ClientName:                   "dapgraph",
		AdapterID:                    launch.Adapter,
		LinesStartAt1:                true,
		ColumnsStartAt1:              true,
		SupportsVariableType:         true,
		SupportsVariablePaging:       true,
		SupportsRunInTerminalRequest: false,
		SupportsInvalidatedEvent:     true,
	})
	if err != nil {
		e.abort(sess, err)
		return nil, errWrap(sess, "Start", err)
	}
	sess.Capabilities.Set(*caps)

	launchTask := task.Spawn(ctx, func(ctx context.Context) (any, error) {
		if launch.Request == "attach" {
			return nil, client.Attach(ctx, args)
		}
		return nil, client.Launch(ctx, args)
	})
	initTask := task.Spawn(ctx, func(ctx context.Context) (any, error) {
		_, err := initialized.Wait(ctx)
		return nil, err
	})

	if _, err := task.AwaitAll(ctx, launchTask, initTask); err != nil {
		e.abort(sess, err)
		return nil, errWrap(sess, "Start", err)
	}

	if e.beforeConfigurationDone != nil {
		if err := e.beforeConfigurationDone(ctx, sess); err != nil {
			e.abort(sess, err)
			return nil, errWrap(sess, "Start", err)
		}
	}

	if err := client.ConfigurationDone(ctx); err != nil {
		e.abort(sess, err)
		return nil, errWrap(sess, "Start", err)
	}

	sess.State.Set(model.SessionRunning)
	return sess, nil
}

// abort records err on sess and tears it down, the shared failure path
// for every step of the startup sequence after the session entity has
// been created.
func (e *Engine) abort(sess *model.Session, err error) {
	sess.Err.Set(err)
	_ = sess.Disconnect(context.Background())
}

func errWrap(sess *model.Session, op string, err error) error {
	return fmt.Errorf("session: %s %s: %w", op, sess.URI(), err)
}

// watchProcessExit force-stops the supervised process backing sess,
// if any, once the session reaches Terminated, so a crashed or
// disconnected adapter never outlives its session.
func (e *Engine) watchProcessExit(sess *model.Session, proc *process.Process) {
	if proc == nil {
		return
	}
	sess.State.Use(sess.Scope, func(st model.SessionState) func() {
		if st != model.SessionTerminated {
			return nil
		}
		go e.stopProcess(proc)
		return nil
	})
}

// watchAdapterCrash records an AdapterExitError on sess.Err and
// terminates the session if proc exits for any reason other than a
// stop the engine itself requested (watchProcessExit's Terminate/Kill,
// or an explicit Disconnect racing the same exit).
func (e *Engine) watchAdapterCrash(sess *model.Session, proc *process.Process, adapter string) {
	if proc == nil {
		return
	}
	go func() {
		<-proc.Done()
		if proc.Reason() == process.ExitReasonRequested {
			return
		}
		if sess.State.Get() == model.SessionTerminated {
			return
		}
		sess.Err.Set(&AdapterExitError{Adapter: adapter, Reason: proc.Reason(), ExitCode: proc.ExitCode()})
		_ = sess.Disconnect(context.Background())
	}()
}

// stopProcess asks proc to terminate, escalating to a kill if it has
// not exited within terminateGrace.
func (e *Engine) stopProcess(proc *process.Process) {
	if proc.HasExited() {
		return
	}
	_ = proc.Terminate()
	select {
	case <-proc.Done():
	case <-time.After(terminateGrace):
		_ = proc.Kill()
	}
}
