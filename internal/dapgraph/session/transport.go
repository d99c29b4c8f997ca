package session

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/process"
)

// pipePair adapts a subprocess's piped stdin/stdout into the single
// io.ReadWriteCloser dap.RawTransport wants, so a process supervised
// by process.Supervisor (PID tracking, signal delivery, exit
// accounting) can still speak DAP without a second, competing owner of
// the underlying *exec.Cmd.
type pipePair struct {
	io.ReadCloser
	io.WriteCloser
}

func (p pipePair) Read(b []byte) (int, error)  { return p.ReadCloser.Read(b) }
func (p pipePair) Write(b []byte) (int, error) { return p.WriteCloser.Write(b) }
func (p pipePair) Close() error {
	werr := p.WriteCloser.Close()
	rerr := p.ReadCloser.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func buildCommand(cfg AdapterConfig) *exec.Cmd {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Cwd
	if len(cfg.Env) > 0 {
		env := append([]string(nil), os.Environ()...)
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	return cmd
}

// buildTransport instantiates the transport named by cfg.Type. The
// returned *process.Process is non-nil only for "stdio", the one
// variant where this package itself owns subprocess lifecycle; "tcp"
// dials an already-running adapter and "server" hands process
// ownership to dap.NewServerTransport, which already supervises the
// subprocess it spawns internally and cannot share that ownership
// with a second supervisor.
func buildTransport(sup *process.Supervisor, name string, cfg AdapterConfig) (dap.Transport, *process.Process, error) {
	switch cfg.Type {
	case "stdio":
		cmd := buildCommand(cfg)
		proc, err := sup.Start(name, cmd)
		if err != nil {
			return nil, nil, fmt.Errorf("session: start adapter %q: %w", name, err)
		}
		go io.Copy(io.Discard, proc.Stderr)
		t := dap.NewRawTransport(pipePair{ReadCloser: proc.Stdout, WriteCloser: proc.Stdin})
		return t, proc, nil

	case "tcp", "attach":
		t, err := dap.NewSocketTransport(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
		if err != nil {
			return nil, nil, fmt.Errorf("session: dial adapter %q: %w", name, err)
		}
		return t, nil, nil

	case "server":
		cmd := buildCommand(cfg)
		t, err := dap.NewServerTransport(cmd, cfg.Host, cfg.PortDetector)
		if err != nil {
			return nil, nil, fmt.Errorf("session: launch server adapter %q: %w", name, err)
		}
		return t, nil, nil

	default:
		return nil, nil, fmt.Errorf("session: unknown adapter type %q for %q", cfg.Type, name)
	}
}
