// Package adapters builds session.AdapterConfig/LaunchConfig pairs for
// the debug adapters a Go-centric workflow touches most often: Delve
// for Go, the inspector-protocol bridge for Node.js, and debugpy for
// Python. Each constructor resolves the adapter executable, fills in
// the per-language defaults that launch.json authors otherwise repeat
// by hand, and hands back values ready for
// Debugger.RegisterAdapter/Start.
package adapters

import (
	"fmt"
	"os/exec"
)

// lookPath is a var so tests can stub executable resolution without
// touching PATH.
var lookPath = exec.LookPath
