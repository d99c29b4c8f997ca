// Package process manages the subprocesses that back a stdio-launched
// debug adapter: start, signal, track exit, and tell a deliberate
// engine-requested stop apart from the adapter crashing on its own.
//
// # Supervisor
//
// One Supervisor is owned by the session engine and tracks every
// adapter process it has spawned:
//
//	sup := process.NewSupervisor(process.WithLogger(log))
//	defer sup.Shutdown(5 * time.Second)
//
//	proc, err := sup.Start("delve", cmd)
//	if err != nil {
//	    return err
//	}
//
//	<-proc.Done()
//	fmt.Printf("exit reason: %s\n", proc.Reason())
//
// # Exit reasons
//
// A Process distinguishes Terminate/Kill calls the supervisor itself
// issued (ExitReasonRequested, the normal path when a session
// disconnects) from everything else (ExitReasonNormal, ExitReasonError,
// ExitReasonSignaled), so a caller can tell "the adapter crashed" from
// "we shut it down" without re-deriving it from the raw exit code.
//
// # Thread Safety
//
// Both Supervisor and Process are safe for concurrent use.
package process
