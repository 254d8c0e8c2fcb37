// Package supervisor lazily starts the mode controller on behalf of command
// writers.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/ipc"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/logging"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/process"
)

const defaultProbeTimeout = 300 * time.Millisecond

// Starter runs a named child process.
type Starter interface {
	Start(ctx context.Context, name string, argv []string) (process.Handle, error)
}

// ProbeFunc reports whether a controller answers on socketPath.
type ProbeFunc func(ctx context.Context, socketPath string, timeout time.Duration) (bool, error)

// Options configures a Supervisor.
type Options struct {
	Logger       *slog.Logger
	SocketPath   string
	Argv         []string
	Starter      Starter
	Probe        ProbeFunc
	ProbeTimeout time.Duration
}

// Supervisor starts at most one controller child per dead instance.
type Supervisor struct {
	logger       *slog.Logger
	socketPath   string
	argv         []string
	starter      Starter
	probe        ProbeFunc
	probeTimeout time.Duration

	mu    sync.Mutex
	child process.Handle
}

// New constructs a supervisor. The controller child runs in its own process
// group so it outlives the writer.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		logger:       opts.Logger,
		socketPath:   opts.SocketPath,
		argv:         append([]string(nil), opts.Argv...),
		starter:      opts.Starter,
		probe:        opts.Probe,
		probeTimeout: opts.ProbeTimeout,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.starter == nil {
		s.starter = process.ExecLauncher{}
	}
	if s.probe == nil {
		s.probe = ipc.Probe
	}
	if s.probeTimeout <= 0 {
		s.probeTimeout = defaultProbeTimeout
	}
	return s
}

// EnsureController starts the controller unless one is already running.
func (s *Supervisor) EnsureController(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.child != nil && s.child.Alive() {
		return nil
	}

	alive, err := s.probe(ctx, s.socketPath, s.probeTimeout)
	if alive {
		return nil
	}
	if err != nil {
		// Something holds the socket but did not answer; a second controller
		// would fail to acquire it anyway.
		s.logger.Warn("controller probe inconclusive", "socket", s.socketPath, "error", err.Error())
		return nil
	}

	if len(s.argv) == 0 {
		return errors.New("start controller: command argv cannot be empty")
	}

	child, err := s.starter.Start(ctx, "controller", s.argv)
	if err != nil {
		s.logger.Error("start controller", "argv", s.argv, "error", err.Error())
		return fmt.Errorf("start controller: %w", err)
	}

	s.child = child
	s.logger.Info("started controller", "child_pid", child.PID(), "argv", s.argv)
	return nil
}

// ChildPID returns the PID of the controller this supervisor started, or 0.
func (s *Supervisor) ChildPID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.child == nil || !s.child.Alive() {
		return 0
	}
	return s.child.PID()
}
