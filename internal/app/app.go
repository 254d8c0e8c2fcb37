// Package app wires CLI commands to the controller, writer, and diagnostics.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/cli"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/config"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/controller"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/doctor"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/indicator"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/ipc"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/logging"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mailbox"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/process"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/supervisor"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/version"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/web"
)

const statusTimeout = 220 * time.Millisecond

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Executable overrides os.Executable when building the controller argv.
	Executable string
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("touchless"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("touchless"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	cfg := cfgLoaded.Config

	logRuntime, err := logging.New(cfg.LogLevel, string(parsed.Command))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"mailbox", cfg.Mailbox,
		"log", logRuntime.Path,
	)

	socketPath := ipc.RuntimeSocketPath()

	switch parsed.Command {
	case cli.CommandController:
		return r.commandController(ctx, cfg, socketPath, logger)
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded, parsed.Listen, socketPath, logger)
	case cli.CommandRequest:
		m, err := mode.Resolve(parsed.Label)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: Unknown mode for script: %s\n", strings.ToLower(parsed.Label))
			logger.Warn("unknown mode request", "label", parsed.Label)
			return 1
		}
		return r.commandRequest(ctx, cfgLoaded, m, socketPath, logger)
	case cli.CommandStop:
		return r.commandRequest(ctx, cfgLoaded, mode.None, socketPath, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx, cfg, socketPath)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, socketPath)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandController owns the IPC socket and runs the polling loop until ctx
// is cancelled.
func (r Runner) commandController(ctx context.Context, cfg config.Config, socketPath string, logger *slog.Logger) int {
	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 8})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return 1
		}
		logger.Error("acquire controller socket", "socket", socketPath, "error", err.Error())
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	box := mailbox.New(cfg.Mailbox)
	if cfg.Watch {
		if err := box.Watch(); err != nil {
			logger.Warn("mailbox watch unavailable; polling only", "error", err.Error())
		}
	}
	defer func() { _ = box.Close() }()

	var notifier controller.Notifier
	if cfg.Indicator.Enable || cfg.Indicator.SoundEnable {
		ind := indicator.New(cfg.Indicator, logger)
		defer ind.Wait()
		notifier = ind
	}

	modes := make(map[mode.Mode][]string, len(cfg.Modes))
	for m, cmd := range cfg.Modes {
		modes[m] = cmd.Argv
	}

	ctrl := controller.New(controller.Options{
		Logger:   logger,
		Mailbox:  box,
		Notifier: notifier,
		Launcher: process.ExecLauncher{
			Dir:    cfg.BaseDir,
			Stdout: r.Stdout,
			Stderr: r.Stderr,
		},
		Modes:        modes,
		BaseDir:      cfg.BaseDir,
		PollInterval: cfg.PollInterval,
		StopGrace:    cfg.StopGrace,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, ctrl)
	}()

	fmt.Fprintf(r.Stdout, "controller watching %s\n", cfg.Mailbox)
	runErr := ctrl.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}

// commandServe runs the HTTP command writer.
func (r Runner) commandServe(ctx context.Context, loaded config.Loaded, listen string, socketPath string, logger *slog.Logger) int {
	cfg := loaded.Config
	if listen == "" {
		listen = cfg.Listen
	}

	opts := web.Options{
		Logger:  logger,
		Addr:    listen,
		Mailbox: mailbox.New(cfg.Mailbox),
		Status: func(ctx context.Context) (ipc.Response, error) {
			return ipc.Status(ctx, socketPath, statusTimeout)
		},
	}
	if cfg.AutostartController {
		sup, err := r.newSupervisor(loaded, socketPath, logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		opts.Supervisor = sup
	}

	fmt.Fprintf(r.Stdout, "listening on http://%s\n", listen)
	if err := web.NewServer(opts).ListenAndServe(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("http server failed", "addr", listen, "error", err.Error())
		return 1
	}
	return 0
}

// commandRequest submits m to the mailbox the same way POST /run does.
func (r Runner) commandRequest(ctx context.Context, loaded config.Loaded, m mode.Mode, socketPath string, logger *slog.Logger) int {
	cfg := loaded.Config

	if cfg.AutostartController {
		sup, err := r.newSupervisor(loaded, socketPath, logger)
		if err == nil {
			err = sup.EnsureController(ctx)
		}
		if err != nil {
			fmt.Fprintf(r.Stderr, "warning: controller not started: %v\n", err)
		}
	}

	cmd := mailbox.NewCommand(m, time.Now())
	if err := mailbox.New(cfg.Mailbox).Submit(cmd); err != nil {
		fmt.Fprintf(r.Stderr, "error: Failed to send command to controller: %v\n", err)
		logger.Error("submit command", "mode", string(m), "id", cmd.ID, "error", err.Error())
		return 1
	}

	logger.Info("command submitted", "mode", string(m), "time", cmd.Time, "id", cmd.ID)
	fmt.Fprintln(r.Stdout, mode.RequestedMessage(m))
	return 0
}

// commandStatus prints the controller snapshot and any pending command.
func (r Runner) commandStatus(ctx context.Context, cfg config.Config, socketPath string) int {
	resp, err := ipc.Status(ctx, socketPath, statusTimeout)
	if err != nil {
		fmt.Fprintln(r.Stdout, "controller: down")
	} else {
		fmt.Fprintln(r.Stdout, "controller: up")
		line := "mode: " + resp.Mode
		if resp.PID > 0 {
			line = fmt.Sprintf("%s (pid %d)", line, resp.PID)
		}
		fmt.Fprintln(r.Stdout, line)
		if resp.LastApplied > 0 {
			fmt.Fprintf(r.Stdout, "last_applied: %.3f\n", resp.LastApplied)
		}
	}

	pending, ok, err := mailbox.New(cfg.Mailbox).Peek()
	switch {
	case err != nil:
		fmt.Fprintf(r.Stdout, "pending: unreadable (%v)\n", err)
	case ok:
		fmt.Fprintf(r.Stdout, "pending: %s (%.3f)\n", pending.Mode, pending.Time)
	default:
		fmt.Fprintln(r.Stdout, "pending: none")
	}
	return 0
}

func (r Runner) newSupervisor(loaded config.Loaded, socketPath string, logger *slog.Logger) (*supervisor.Supervisor, error) {
	argv, err := r.controllerArgv(loaded)
	if err != nil {
		return nil, err
	}
	return supervisor.New(supervisor.Options{
		Logger:     logger,
		SocketPath: socketPath,
		Argv:       argv,
		Starter:    process.ExecLauncher{Dir: loaded.Config.BaseDir},
	}), nil
}

// controllerArgv returns controller_cmd, or this binary's own controller
// subcommand pointed at the same config file.
func (r Runner) controllerArgv(loaded config.Loaded) ([]string, error) {
	if argv := loaded.Config.ControllerCmd.Argv; len(argv) > 0 {
		return append([]string(nil), argv...), nil
	}

	exe := r.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
	}

	argv := []string{exe}
	if loaded.Exists {
		argv = append(argv, "--config", loaded.Path)
	}
	return append(argv, string(cli.CommandController)), nil
}
