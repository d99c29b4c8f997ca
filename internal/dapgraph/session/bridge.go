package session

import (
	"context"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

// wireBridge registers every model.Apply* function as the matching
// dap.Client event handler for sess, the event-to-mutation half of the
// entity bridge (C9). The receive loop dispatches one event at a time
// on its own goroutine (O1), so these handlers run serialised with
// respect to each other for a given session; a background context
// bounds the handful that issue follow-up requests (fetchStack via
// ApplyStopped) since DAP's event dispatch carries no caller context
// of its own, and Client.Request applies its own default timeout when
// none is supplied.
func wireBridge(client *dap.Client, sess *model.Session, onInitialized func()) {
	client.OnInitialized(func() {
		model.ApplyInitialized(sess)
		if onInitialized != nil {
			onInitialized()
		}
	})
	client.OnThread(func(b dap.ThreadEventBody) { model.ApplyThreadEvent(sess, b) })
	client.OnStopped(func(b dap.StoppedEventBody) { model.ApplyStopped(context.Background(), sess, b) })
	client.OnContinued(func(b dap.ContinuedEventBody) { model.ApplyContinued(sess, b) })
	client.OnTerminated(func(dap.TerminatedEventBody) { model.ApplyTerminated(sess) })
	client.OnExited(func(b dap.ExitedEventBody) { model.ApplyExited(sess, b) })
	client.OnOutput(func(b dap.OutputEventBody) { model.ApplyOutput(sess, b) })
	client.OnBreakpoint(func(b dap.BreakpointEventBody) { model.ApplyBreakpointEvent(sess, b) })
	client.OnLoadedSource(func(b dap.LoadedSourceEventBody) { model.ApplyLoadedSource(sess, b) })
	client.OnProcess(func(b dap.ProcessEventBody) { model.ApplyProcess(sess, b) })
	client.OnModule(func(b dap.ModuleEventBody) { model.ApplyModule(sess, b) })
	client.OnInvalidated(func(b dap.InvalidatedEventBody) { model.ApplyInvalidated(sess, b) })
}
