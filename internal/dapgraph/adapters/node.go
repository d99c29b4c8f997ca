package adapters

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/dshills/dapgraph/internal/dapgraph/session"
)

// NodeOptions configures a Node.js debug session run through
// js-debug's DAP server entry point (dapDebugServer.js).
type NodeOptions struct {
	// Program is the script to run.
	Program string
	Args    []string
	Cwd     string
	Env     map[string]string

	StopOnEntry bool
	SourceMaps  bool
	SkipFiles   []string

	// NodePath overrides the PATH lookup for the node executable.
	NodePath string
	// DebugServerPath is the path to js-debug's dapDebugServer.js.
	DebugServerPath string
}

var nodeListenPattern = regexp.MustCompile(`(?m)listening.*?(\d+)\s*$`)

// Node resolves node on PATH (unless NodePath is set), spawns
// js-debug's server entry point and has the session transport dial the
// port it reports on stdout.
func Node(name string, opts NodeOptions) (session.AdapterConfig, session.LaunchConfig, error) {
	nodePath := opts.NodePath
	if nodePath == "" {
		var err error
		nodePath, err = lookPath("node")
		if err != nil {
			return session.AdapterConfig{}, session.LaunchConfig{}, fmt.Errorf("adapters: node not found: %w", err)
		}
	}
	if opts.DebugServerPath == "" {
		return session.AdapterConfig{}, session.LaunchConfig{}, fmt.Errorf("adapters: node: DebugServerPath is required")
	}
	if opts.Program == "" {
		return session.AdapterConfig{}, session.LaunchConfig{}, fmt.Errorf("adapters: node: Program is required")
	}

	cfg := session.AdapterConfig{
		Type:    "server",
		Command: nodePath,
		Args:    []string{opts.DebugServerPath, "0"},
		Host:    "127.0.0.1",
		Cwd:     opts.Cwd,
		Env:     opts.Env,
		PortDetector: func(chunk []byte) (int, string, bool) {
			m := nodeListenPattern.FindSubmatch(bytes.TrimSpace(chunk))
			if m == nil {
				return 0, "", false
			}
			var port int
			_, err := fmt.Sscanf(string(m[1]), "%d", &port)
			if err != nil {
				return 0, "", false
			}
			return port, "127.0.0.1", true
		},
	}

	args := map[string]any{
		"program":     opts.Program,
		"stopOnEntry": opts.StopOnEntry,
		"sourceMaps":  opts.SourceMaps,
	}
	if len(opts.Args) > 0 {
		args["args"] = opts.Args
	}
	if opts.Cwd != "" {
		args["cwd"] = opts.Cwd
	}
	if len(opts.SkipFiles) > 0 {
		args["skipFiles"] = opts.SkipFiles
	}

	return cfg, session.LaunchConfig{Adapter: name, Request: "launch", Args: args}, nil
}
