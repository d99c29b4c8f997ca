package adapters

import (
	"fmt"

	"github.com/dshills/dapgraph/internal/dapgraph/session"
)

// DelveOptions configures a Go debug session run through dlv dap.
type DelveOptions struct {
	// Mode is "debug", "test" or "exec". Defaults to "debug".
	Mode string
	// Program is the package or binary to build and run.
	Program string
	Args    []string
	Cwd     string
	Env     map[string]string

	StopOnEntry bool
	BuildFlags  string
	Output      string
	Backend     string

	// DlvPath overrides the PATH lookup for the dlv executable.
	DlvPath string
}

// Delve resolves dlv on PATH (unless DlvPath is set) and builds the
// "dlv dap" stdio adapter configuration plus a launch request carrying
// opts onto the wire shape dlv-dap expects.
func Delve(name string, opts DelveOptions) (session.AdapterConfig, session.LaunchConfig, error) {
	dlvPath := opts.DlvPath
	if dlvPath == "" {
		var err error
		dlvPath, err = lookPath("dlv")
		if err != nil {
			return session.AdapterConfig{}, session.LaunchConfig{}, fmt.Errorf("adapters: delve not found (go install github.com/go-delve/delve/cmd/dlv@latest): %w", err)
		}
	}
	if opts.Program == "" {
		return session.AdapterConfig{}, session.LaunchConfig{}, fmt.Errorf("adapters: delve: Program is required")
	}
	mode := opts.Mode
	if mode == "" {
		mode = "debug"
	}

	cfg := session.AdapterConfig{
		Type:    "stdio",
		Command: dlvPath,
		Args:    []string{"dap"},
		Cwd:     opts.Cwd,
		Env:     opts.Env,
	}

	args := map[string]any{
		"mode":        mode,
		"program":     opts.Program,
		"stopOnEntry": opts.StopOnEntry,
	}
	if len(opts.Args) > 0 {
		args["args"] = opts.Args
	}
	if opts.Cwd != "" {
		args["cwd"] = opts.Cwd
	}
	if opts.BuildFlags != "" {
		args["buildFlags"] = opts.BuildFlags
	}
	if opts.Output != "" {
		args["output"] = opts.Output
	}
	if opts.Backend != "" {
		args["backend"] = opts.Backend
	}

	return cfg, session.LaunchConfig{Adapter: name, Request: "launch", Args: args}, nil
}
