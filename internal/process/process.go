// Package process starts and stops modality programs as child processes.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

// killWait bounds how long Stop waits for the exit after a forceful kill.
const killWait = 2 * time.Second

// Handle is the controller's ownership of one running child.
type Handle interface {
	PID() int
	Alive() bool
	// Stop terminates gracefully, escalating to a kill after grace.
	Stop(grace time.Duration) error
}

// Launcher starts the child for a mode.
type Launcher interface {
	Launch(ctx context.Context, m mode.Mode, argv []string) (Handle, error)
}

// ExecLauncher launches children with os/exec in their own process group.
type ExecLauncher struct {
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Launch starts argv for m. The child is not bound to ctx: it keeps running
// until Stop is called.
func (l ExecLauncher) Launch(ctx context.Context, m mode.Mode, argv []string) (Handle, error) {
	return l.Start(ctx, string(m), argv)
}

// Start runs argv as a named child in its own process group.
func (l ExecLauncher) Start(ctx context.Context, name string, argv []string) (Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("launch %s: command argv cannot be empty", name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = l.Dir
	if l.Env != nil {
		cmd.Env = l.Env
	}
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	configureGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s command %s: %w", name, argv[0], err)
	}

	h := &execHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type execHandle struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

func (h *execHandle) PID() int {
	return h.cmd.Process.Pid
}

func (h *execHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *execHandle) Stop(grace time.Duration) error {
	if !h.Alive() {
		return nil
	}

	if err := terminate(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return h.kill()
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-h.done:
		return nil
	case <-timer.C:
	}
	return h.kill()
}

func (h *execHandle) kill() error {
	if err := forceKill(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) && h.Alive() {
		return fmt.Errorf("kill pid %d: %w", h.PID(), err)
	}

	timer := time.NewTimer(killWait)
	defer timer.Stop()
	select {
	case <-h.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("pid %d still alive after kill", h.PID())
	}
}
