package adapters

import (
	"errors"
	"testing"
)

func stubLookPath(t *testing.T, found map[string]string) {
	t.Helper()
	prev := lookPath
	lookPath = func(name string) (string, error) {
		if p, ok := found[name]; ok {
			return p, nil
		}
		return "", errors.New("not found: " + name)
	}
	t.Cleanup(func() { lookPath = prev })
}

func TestDelveBuildsStdioLaunchConfig(t *testing.T) {
	stubLookPath(t, map[string]string{"dlv": "/usr/local/bin/dlv"})

	cfg, launch, err := Delve("go", DelveOptions{Program: ".", Mode: "debug"})
	if err != nil {
		t.Fatalf("Delve: %v", err)
	}
	if cfg.Type != "stdio" || cfg.Command != "/usr/local/bin/dlv" {
		t.Fatalf("unexpected adapter config: %+v", cfg)
	}
	if launch.Adapter != "go" || launch.Request != "launch" {
		t.Fatalf("unexpected launch config: %+v", launch)
	}
	if launch.Args["program"] != "." {
		t.Errorf("expected program \".\", got %v", launch.Args["program"])
	}
}

func TestDelveRequiresProgram(t *testing.T) {
	stubLookPath(t, map[string]string{"dlv": "/usr/local/bin/dlv"})
	if _, _, err := Delve("go", DelveOptions{}); err == nil {
		t.Fatal("expected error for missing Program")
	}
}

func TestDelveMissingExecutable(t *testing.T) {
	stubLookPath(t, map[string]string{})
	if _, _, err := Delve("go", DelveOptions{Program: "."}); err == nil {
		t.Fatal("expected error when dlv is not on PATH")
	}
}

func TestNodeBuildsServerLaunchConfig(t *testing.T) {
	stubLookPath(t, map[string]string{"node": "/usr/bin/node"})

	cfg, launch, err := Node("node", NodeOptions{Program: "app.js", DebugServerPath: "/opt/js-debug/dapDebugServer.js"})
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	if cfg.Type != "server" || cfg.PortDetector == nil {
		t.Fatalf("unexpected adapter config: %+v", cfg)
	}
	port, host, ok := cfg.PortDetector([]byte("Debug server listening at 127.0.0.1:9229"))
	if !ok || port != 9229 || host != "127.0.0.1" {
		t.Errorf("PortDetector: got (%d, %q, %v)", port, host, ok)
	}
	if launch.Args["program"] != "app.js" {
		t.Errorf("expected program \"app.js\", got %v", launch.Args["program"])
	}
}

func TestNodeRequiresDebugServerPath(t *testing.T) {
	stubLookPath(t, map[string]string{"node": "/usr/bin/node"})
	if _, _, err := Node("node", NodeOptions{Program: "app.js"}); err == nil {
		t.Fatal("expected error for missing DebugServerPath")
	}
}

func TestPythonBuildsStdioLaunchConfig(t *testing.T) {
	stubLookPath(t, map[string]string{"python3": "/usr/bin/python3"})

	cfg, launch, err := Python("python", PythonOptions{Program: "main.py", JustMyCode: true})
	if err != nil {
		t.Fatalf("Python: %v", err)
	}
	if cfg.Type != "stdio" || cfg.Command != "/usr/bin/python3" {
		t.Fatalf("unexpected adapter config: %+v", cfg)
	}
	if launch.Args["program"] != "main.py" {
		t.Errorf("expected program \"main.py\", got %v", launch.Args["program"])
	}
}

func TestPythonRequiresProgramOrModule(t *testing.T) {
	stubLookPath(t, map[string]string{"python3": "/usr/bin/python3"})
	if _, _, err := Python("python", PythonOptions{}); err == nil {
		t.Fatal("expected error when neither Program nor Module is set")
	}
}
