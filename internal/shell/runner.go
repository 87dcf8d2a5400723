// Package shell starts interactive shell processes on a pseudo-terminal and
// implements core.SessionRunner.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/core"
)

// Config controls how shell sessions are spawned.
type Config struct {
	// Candidates are probed in order when resolving the shell executable.
	Candidates []string
	// Default is used when no candidate resolves.
	Default string
	// Env entries are appended to the process environment before the
	// per-session entries from the start request.
	Env []string
}

// Runner implements core.SessionRunner on top of a PTY.
type Runner struct {
	cfg Config
}

// NewRunner constructs a PTY shell runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Default == "" {
		cfg.Default = "/bin/sh"
	}
	return &Runner{cfg: cfg}
}

// Start resolves the shell executable and spawns it on a fresh PTY.
func (r *Runner) Start(ctx context.Context, req core.StartSessionRequest) (core.SessionHandle, error) {
	shellPath := Resolve(r.cfg.Candidates, r.cfg.Default)
	log := pslog.Ctx(ctx)
	log.Info("shell spawn start", "shell", shellPath, "workdir", req.WorkingDir)

	cmd := exec.Command(shellPath)
	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}
	cmd.Env = buildEnv(os.Environ(), r.cfg.Env, req.Env)

	size := &pty.Winsize{Cols: uint16(req.Cols), Rows: uint16(req.Rows)}
	if req.Cols <= 0 || req.Rows <= 0 {
		size = &pty.Winsize{Cols: 80, Rows: 24}
	}
	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		log.Error("shell spawn failed", "err", err)
		return nil, fmt.Errorf("start %s: %w", shellPath, err)
	}
	log.Info("shell spawn ok", "pid", cmd.Process.Pid)

	return &sessionHandle{
		cmd:     cmd,
		ptmx:    ptmx,
		shell:   shellPath,
		stream:  newOutputStream(ptmx),
		log:     log,
		started: time.Now(),
	}, nil
}

// Resolve probes candidate shell paths in order and falls back to the
// provided default. Absolute candidates are stat'ed; bare names are looked
// up on PATH.
func Resolve(candidates []string, fallback string) string {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if filepath.IsAbs(candidate) {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
			continue
		}
		if resolved, err := exec.LookPath(candidate); err == nil {
			return resolved
		}
	}
	return fallback
}

func buildEnv(base, runner, session []string) []string {
	env := append([]string(nil), base...)
	env = append(env, runner...)
	return append(env, session...)
}

type sessionHandle struct {
	cmd     *exec.Cmd
	ptmx    *os.File
	shell   string
	stream  *outputStream
	log     pslog.Logger
	started time.Time

	waitOnce sync.Once
	waitRes  core.RunResult
	waitErr  error
}

func (h *sessionHandle) Output() core.OutputStream {
	return h.stream
}

func (h *sessionHandle) Write(p []byte) (int, error) {
	return h.ptmx.Write(p)
}

func (h *sessionHandle) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid size %dx%d", cols, rows)
	}
	return pty.Setsize(h.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Signal delivers the signal to the shell's process group so foreground
// children receive it as well.
func (h *sessionHandle) Signal(sig core.ProcessSignal) error {
	if h.cmd == nil || h.cmd.Process == nil {
		return fmt.Errorf("process not started")
	}
	var signo unix.Signal
	switch sig {
	case core.ProcessSignalHUP:
		signo = unix.SIGHUP
	case core.ProcessSignalTERM:
		signo = unix.SIGTERM
	case core.ProcessSignalKILL:
		signo = unix.SIGKILL
	default:
		return fmt.Errorf("unsupported signal: %s", sig)
	}
	if err := unix.Kill(-h.cmd.Process.Pid, signo); err == nil {
		return nil
	}
	return h.cmd.Process.Signal(signo)
}

func (h *sessionHandle) Wait(ctx context.Context) (core.RunResult, error) {
	_ = ctx
	h.waitOnce.Do(func() {
		err := h.cmd.Wait()
		exitCode := 0
		if err != nil {
			exitErr, ok := err.(*exec.ExitError)
			if !ok {
				h.waitErr = err
				return
			}
			exitCode = exitErr.ExitCode()
		}
		h.waitRes = core.RunResult{ExitCode: exitCode}
		if h.log != nil {
			h.log.Info("shell exited", "exit_code", exitCode, "duration_ms", time.Since(h.started).Milliseconds())
		}
	})
	return h.waitRes, h.waitErr
}

func (h *sessionHandle) Shell() string {
	return h.shell
}

func (h *sessionHandle) Close() error {
	_ = h.stream.Close()
	return h.ptmx.Close()
}

// outputStream adapts PTY reads to the pull-based core.OutputStream.
type outputStream struct {
	chunks    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newOutputStream(ptmx *os.File) *outputStream {
	s := &outputStream{
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go s.read(ptmx)
	return s
}

func (s *outputStream) read(ptmx *os.File) {
	defer close(s.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *outputStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, io.EOF
	case chunk, ok := <-s.chunks:
		if !ok {
			return nil, io.EOF
		}
		return chunk, nil
	}
}

func (s *outputStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
