package session

import "testing"

func TestResolveConfigSubstitutesTemplateVars(t *testing.T) {
	cfg := AdapterConfig{
		Type:    "stdio",
		Command: "dlv",
		Args:    []string{"dap", "--listen=127.0.0.1:${port}"},
		Cwd:     "${workspaceFolder}",
		Env:     map[string]string{"FOO": "${bar}"},
	}
	vars := map[string]string{"port": "4711", "workspaceFolder": "/repo", "bar": "baz"}

	out := resolveConfig(cfg, vars)

	if out.Args[1] != "dap" && out.Args[0] != "dap" {
		t.Fatalf("unexpected args: %v", out.Args)
	}
	if out.Args[1] != "--listen=127.0.0.1:4711" {
		t.Errorf("expected port substitution, got %q", out.Args[1])
	}
	if out.Cwd != "/repo" {
		t.Errorf("expected workspaceFolder substitution, got %q", out.Cwd)
	}
	if out.Env["FOO"] != "baz" {
		t.Errorf("expected env substitution, got %q", out.Env["FOO"])
	}
}

func TestResolveConfigLeavesUnknownVarsAlone(t *testing.T) {
	cfg := AdapterConfig{Args: []string{"${unknown}"}}
	out := resolveConfig(cfg, map[string]string{})
	if out.Args[0] != "${unknown}" {
		t.Errorf("expected unresolved placeholder to pass through, got %q", out.Args[0])
	}
}

func TestResolveLaunchArgsSubstitutesNestedLeaves(t *testing.T) {
	args := map[string]any{
		"program": "${workspaceFolder}/main.go",
		"env": map[string]any{
			"PORT": "${port}",
		},
		"extraArgs": []any{"--addr=${port}", "static"},
	}
	vars := map[string]string{"workspaceFolder": "/repo", "port": "9229"}

	out, err := resolveLaunchArgs(args, vars)
	if err != nil {
		t.Fatalf("resolveLaunchArgs: %v", err)
	}
	if out["program"] != "/repo/main.go" {
		t.Errorf("expected program substitution, got %v", out["program"])
	}
	env := out["env"].(map[string]any)
	if env["PORT"] != "9229" {
		t.Errorf("expected nested env substitution, got %v", env["PORT"])
	}
	extra := out["extraArgs"].([]any)
	if extra[0] != "--addr=9229" {
		t.Errorf("expected array element substitution, got %v", extra[0])
	}
	if extra[1] != "static" {
		t.Errorf("expected untouched array element to survive, got %v", extra[1])
	}
}

func TestResolveLaunchArgsEmptyIsNoop(t *testing.T) {
	out, err := resolveLaunchArgs(nil, map[string]string{"x": "y"})
	if err != nil {
		t.Fatalf("resolveLaunchArgs: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil passthrough for empty args, got %v", out)
	}
}
