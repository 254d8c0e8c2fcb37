// Package controller owns the active modality process and applies mailbox
// commands to it.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/fsm"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/ipc"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/logging"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mailbox"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/process"
)

const (
	defaultPollInterval = 300 * time.Millisecond
	defaultStopGrace    = 5 * time.Second
)

// ErrUnresolvedMode marks a mode with no launchable program.
var ErrUnresolvedMode = errors.New("unresolved mode")

// Outcome classifies what one command or poll iteration did.
type Outcome string

const (
	OutcomeEmpty        Outcome = "empty"
	OutcomeMalformed    Outcome = "malformed"
	OutcomeFailed       Outcome = "failed"
	OutcomeStale        Outcome = "stale"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeNoop         Outcome = "noop"
	OutcomeStopped      Outcome = "stopped"
	OutcomeStarted      Outcome = "started"
	OutcomeUnresolved   Outcome = "unresolved"
	OutcomeLaunchFailed Outcome = "launch_failed"
)

// Applied reports whether the command advanced the last applied timestamp.
func (o Outcome) Applied() bool {
	switch o {
	case OutcomeNoop, OutcomeStopped, OutcomeStarted, OutcomeUnresolved, OutcomeLaunchFailed:
		return true
	default:
		return false
	}
}

// Mailbox is the controller-facing subset of the command mailbox.
type Mailbox interface {
	TryTake() (mailbox.Command, bool, error)
	Wait(ctx context.Context, interval time.Duration) error
}

// Notifier surfaces mode changes to the user.
type Notifier interface {
	ModeStarted(ctx context.Context, m mode.Mode, pid int)
	ModeStopped(ctx context.Context, m mode.Mode)
	LaunchFailed(ctx context.Context, m mode.Mode, reason string)
}

type noopNotifier struct{}

func (noopNotifier) ModeStarted(context.Context, mode.Mode, int)     {}
func (noopNotifier) ModeStopped(context.Context, mode.Mode)          {}
func (noopNotifier) LaunchFailed(context.Context, mode.Mode, string) {}

// ResolveFunc checks that an argv can be launched from dir.
type ResolveFunc func(argv []string, dir string) (string, error)

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Logger       *slog.Logger
	Mailbox      Mailbox
	Launcher     process.Launcher
	Notifier     Notifier
	Modes        map[mode.Mode][]string
	BaseDir      string
	PollInterval time.Duration
	StopGrace    time.Duration
	Resolve      ResolveFunc
	Clock        func() time.Time
}

// Snapshot is a point-in-time view of controller state.
type Snapshot struct {
	Mode        mode.Mode
	PID         int
	LastApplied float64
	Since       time.Time
}

// Controller drives the mode state machine. Apply, Step, and Run are meant to
// be called from one goroutine; Snapshot and Handle are safe from any.
type Controller struct {
	logger       *slog.Logger
	mailbox      Mailbox
	launcher     process.Launcher
	notifier     Notifier
	modes        map[mode.Mode][]string
	baseDir      string
	pollInterval time.Duration
	stopGrace    time.Duration
	resolve      ResolveFunc
	now          func() time.Time

	applyMu sync.Mutex

	mu          sync.RWMutex
	active      mode.Mode
	handle      process.Handle
	lastApplied float64
	since       time.Time
}

// New constructs a controller in the idle state.
func New(opts Options) *Controller {
	c := &Controller{
		logger:       opts.Logger,
		mailbox:      opts.Mailbox,
		launcher:     opts.Launcher,
		notifier:     opts.Notifier,
		modes:        make(map[mode.Mode][]string, len(opts.Modes)),
		baseDir:      opts.BaseDir,
		pollInterval: opts.PollInterval,
		stopGrace:    opts.StopGrace,
		resolve:      opts.Resolve,
		now:          opts.Clock,
		active:       mode.None,
	}
	for m, argv := range opts.Modes {
		c.modes[m] = append([]string(nil), argv...)
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.launcher == nil {
		c.launcher = process.ExecLauncher{Dir: opts.BaseDir}
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.stopGrace <= 0 {
		c.stopGrace = defaultStopGrace
	}
	if c.resolve == nil {
		c.resolve = process.Resolve
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Snapshot returns the current mode, child PID, and last applied timestamp.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{Mode: c.active, LastApplied: c.lastApplied, Since: c.since}
	if c.handle != nil {
		snap.PID = c.handle.PID()
	}
	return snap
}

// Apply runs one command through the staleness check and the state machine.
func (c *Controller) Apply(ctx context.Context, cmd mailbox.Command) Outcome {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	logger := c.logger.With("mode", string(cmd.Mode), "time", cmd.Time, "id", cmd.ID)
	snap := c.Snapshot()

	if cmd.Time <= snap.LastApplied {
		logger.Info("ignoring stale command", "last_applied", snap.LastApplied)
		return OutcomeStale
	}

	plan, err := fsm.Transition(snap.Mode, cmd.Mode)
	if err != nil {
		logger.Error("reject command", "error", err.Error())
		return OutcomeInvalid
	}

	c.mu.Lock()
	c.lastApplied = cmd.Time
	c.mu.Unlock()

	if issued, ok := cmd.IssuedAt(); ok {
		logger.Debug("applying command", "from", string(plan.From), "age_ms", c.now().Sub(issued).Milliseconds())
	} else {
		logger.Debug("applying command", "from", string(plan.From))
	}

	if plan.Noop() {
		logger.Info("mode already active")
		return OutcomeNoop
	}
	if plan.Stop {
		c.stopActive(ctx)
	}
	if !plan.Start {
		return OutcomeStopped
	}

	argv, err := c.launchArgv(cmd.Mode)
	if err != nil {
		logger.Error("cannot resolve mode", "error", err.Error())
		c.notifier.LaunchFailed(ctx, cmd.Mode, "program not found")
		return OutcomeUnresolved
	}

	handle, err := c.launcher.Launch(ctx, cmd.Mode, argv)
	if err != nil {
		logger.Error("launch failed", "error", err.Error())
		c.notifier.LaunchFailed(ctx, cmd.Mode, "launch failed")
		return OutcomeLaunchFailed
	}

	c.mu.Lock()
	c.active = cmd.Mode
	c.handle = handle
	c.since = c.now()
	c.mu.Unlock()

	logger.Info("started mode", "child_pid", handle.PID())
	c.notifier.ModeStarted(ctx, cmd.Mode, handle.PID())
	return OutcomeStarted
}

// Step takes at most one command from the mailbox and applies it. Errors and
// panics are logged and never escape.
func (c *Controller) Step(ctx context.Context) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("poll iteration panicked", "panic", fmt.Sprint(r))
			outcome = OutcomeFailed
		}
	}()

	cmd, ok, err := c.mailbox.TryTake()
	if err != nil {
		if errors.Is(err, mailbox.ErrMalformedRecord) {
			c.logger.Warn("discarding malformed command", "error", err.Error())
			return OutcomeMalformed
		}
		c.logger.Error("read mailbox", "error", err.Error())
		return OutcomeFailed
	}
	if !ok {
		return OutcomeEmpty
	}
	return c.Apply(ctx, cmd)
}

// Run polls the mailbox until ctx is cancelled, then stops the active child.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("controller started", "poll_interval_ms", c.pollInterval.Milliseconds())
	defer func() {
		c.applyMu.Lock()
		defer c.applyMu.Unlock()
		c.stopActive(context.Background())
		c.logger.Info("controller stopped")
	}()

	for {
		if err := c.mailbox.Wait(ctx, c.pollInterval); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("mailbox wait", "error", err.Error())
		}
		c.Step(ctx)
	}
}

// Handle serves IPC requests with the controller snapshot.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	snap := c.Snapshot()
	resp := ipc.Response{Mode: string(snap.Mode), PID: snap.PID, LastApplied: snap.LastApplied}

	switch req.Command {
	case ipc.CommandStatus:
		resp.OK = true
		resp.Message = "status"
	default:
		resp.Error = fmt.Sprintf("unknown command: %s", req.Command)
	}
	return resp
}

// stopActive stops the current child, if any, and returns to idle. A child
// that survives the kill is logged and abandoned.
func (c *Controller) stopActive(ctx context.Context) {
	c.mu.RLock()
	active, handle := c.active, c.handle
	c.mu.RUnlock()

	if handle != nil {
		logger := c.logger.With("mode", string(active), "child_pid", handle.PID())
		logger.Info("stopping mode")
		if err := handle.Stop(c.stopGrace); err != nil {
			logger.Error("stop mode", "error", err.Error())
		}
		c.notifier.ModeStopped(ctx, active)
	}

	c.mu.Lock()
	c.active = mode.None
	c.handle = nil
	c.since = time.Time{}
	c.mu.Unlock()
}

// launchArgv looks m up in the launch table and checks its target exists.
func (c *Controller) launchArgv(m mode.Mode) ([]string, error) {
	argv := c.modes[m]
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: no command configured for %s", ErrUnresolvedMode, m)
	}
	if _, err := c.resolve(argv, c.baseDir); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnresolvedMode, m, err)
	}
	return append([]string(nil), argv...), nil
}
