package adapters

import (
	"fmt"

	"github.com/dshills/dapgraph/internal/dapgraph/session"
)

// PythonOptions configures a Python debug session run through debugpy.
type PythonOptions struct {
	Program string
	Module  string
	Args    []string
	Cwd     string
	Env     map[string]string

	JustMyCode     bool
	RedirectOutput bool

	// PythonPath overrides the PATH lookup for the interpreter.
	PythonPath string
}

// Python resolves python3 on PATH (unless PythonPath is set) and
// spawns debugpy's adapter, which speaks DAP over stdio with no
// separate listen step.
func Python(name string, opts PythonOptions) (session.AdapterConfig, session.LaunchConfig, error) {
	pythonPath := opts.PythonPath
	if pythonPath == "" {
		var err error
		pythonPath, err = lookPath("python3")
		if err != nil {
			return session.AdapterConfig{}, session.LaunchConfig{}, fmt.Errorf("adapters: python3 not found: %w", err)
		}
	}
	if opts.Program == "" && opts.Module == "" {
		return session.AdapterConfig{}, session.LaunchConfig{}, fmt.Errorf("adapters: python: Program or Module is required")
	}

	cfg := session.AdapterConfig{
		Type:    "stdio",
		Command: pythonPath,
		Args:    []string{"-m", "debugpy.adapter"},
		Cwd:     opts.Cwd,
		Env:     opts.Env,
	}

	args := map[string]any{
		"justMyCode":     opts.JustMyCode,
		"redirectOutput": opts.RedirectOutput,
	}
	if opts.Program != "" {
		args["program"] = opts.Program
	}
	if opts.Module != "" {
		args["module"] = opts.Module
	}
	if len(opts.Args) > 0 {
		args["args"] = opts.Args
	}
	if opts.Cwd != "" {
		args["cwd"] = opts.Cwd
	}

	return cfg, session.LaunchConfig{Adapter: name, Request: "launch", Args: args}, nil
}
