// Package session implements the startup/termination orchestration
// (C8) the model package deliberately leaves out: resolving an
// adapter configuration, instantiating the transport and protocol
// client, running the initialize/launch/configurationDone sequence,
// wiring the entity bridge (C9) as dap.Client event handlers, and
// spawning hierarchical child sessions on a `startDebugging` reverse
// request.
package session

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// AdapterConfig describes how to reach one named debug adapter,
// generalising the host codebase's fixed Delve/Node/Python adapter
// structs (internal/integration/debug/adapters/adapter.go) into named
// template variables resolved at configuration-resolution time.
type AdapterConfig struct {
	// Type selects the transport: "stdio" spawns Command and speaks
	// DAP over its stdin/stdout; "tcp" dials Host:Port; "server"
	// spawns Command and dials the port PortDetector extracts from its
	// stdout.
	Type string

	Command string
	Args    []string

	Host string
	Port int

	Cwd string
	Env map[string]string

	// PortDetector is invoked with each stdout chunk of a "server"
	// adapter until it reports a port.
	PortDetector func(chunk []byte) (port int, host string, ok bool)
}

// LaunchConfig names the registered adapter and the launch/attach
// request used to start a session against it.
type LaunchConfig struct {
	Adapter string
	Request string // "launch" or "attach"
	Args    map[string]any
}

var templateVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

func substituteString(s string, vars map[string]string) string {
	return templateVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := m[2 : len(m)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		return m
	})
}

// resolveConfig substitutes ${port}/${workspaceFolder}/${file}-style
// template variables into cfg's plain-string fields.
func resolveConfig(cfg AdapterConfig, vars map[string]string) AdapterConfig {
	out := cfg
	out.Cwd = substituteString(cfg.Cwd, vars)
	out.Args = make([]string, len(cfg.Args))
	for i, a := range cfg.Args {
		out.Args[i] = substituteString(a, vars)
	}
	out.Env = make(map[string]string, len(cfg.Env))
	for k, v := range cfg.Env {
		out.Env[k] = substituteString(v, vars)
	}
	return out
}

// resolveLaunchArgs substitutes template variables into every string
// leaf of args, walking the JSON tree with gjson and rewriting matched
// leaves in place with sjson, rather than a flat string replace, so
// nested launch configurations (the common shape for "launch" request
// bodies: arrays of env pairs, nested "outputCapture" objects, ...)
// are covered without the caller needing to pre-flatten them.
func resolveLaunchArgs(args map[string]any, vars map[string]string) (map[string]any, error) {
	if len(args) == 0 {
		return args, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("session: marshal launch args: %w", err)
	}
	doc := string(raw)

	var walk func(path string, res gjson.Result) error
	walk = func(path string, res gjson.Result) error {
		switch {
		case res.IsObject():
			var werr error
			res.ForEach(func(key, value gjson.Result) bool {
				child := key.String()
				if path != "" {
					child = path + "." + child
				}
				if err := walk(child, value); err != nil {
					werr = err
					return false
				}
				return true
			})
			return werr
		case res.IsArray():
			var werr error
			i := 0
			res.ForEach(func(_, value gjson.Result) bool {
				child := fmt.Sprintf("%s.%d", path, i)
				i++
				if err := walk(child, value); err != nil {
					werr = err
					return false
				}
				return true
			})
			return werr
		case res.Type == gjson.String:
			substituted := substituteString(res.String(), vars)
			if substituted == res.String() {
				return nil
			}
			updated, err := sjson.Set(doc, path, substituted)
			if err != nil {
				return fmt.Errorf("session: substitute %q: %w", path, err)
			}
			doc = updated
		}
		return nil
	}

	if err := walk("", gjson.Parse(doc)); err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("session: unmarshal resolved launch args: %w", err)
	}
	return out, nil
}
