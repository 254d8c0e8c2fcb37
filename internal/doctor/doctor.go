// Package doctor runs readiness diagnostics for config, mailbox, modality
// programs, and the controller.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/config"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/ipc"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/process"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded, socketPath string) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	checks = append(checks, checkMailboxDir(cfg.Config.Mailbox))
	for _, m := range mode.Active {
		checks = append(checks, checkMode(cfg.Config, m))
	}
	checks = append(checks, checkController(ctx, socketPath, cfg.Config.AutostartController))

	if cfg.Config.Indicator.Enable {
		if strings.EqualFold(cfg.Config.Indicator.Backend, "hypr") {
			checks = append(checks, checkBinary("hyprctl", "hypr indicator backend"))
		} else {
			checks = append(checks, checkEnv("DBUS_SESSION_BUS_ADDRESS", func(v string) bool {
				return strings.TrimSpace(v) != ""
			}, "desktop notifications available", "DBUS_SESSION_BUS_ADDRESS is empty"))
		}
	}

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkMailboxDir verifies that the command writer can create files beside the mailbox.
func checkMailboxDir(path string) Check {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "mailbox", Pass: false, Message: fmt.Sprintf("create %s: %v", dir, err)}
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return Check{Name: "mailbox", Pass: false, Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return Check{Name: "mailbox", Pass: true, Message: fmt.Sprintf("%s is writable", path)}
}

// checkMode verifies that the launch table entry for m resolves to a program.
func checkMode(cfg config.Config, m mode.Mode) Check {
	name := "modes." + string(m)
	argv := cfg.LaunchArgv(m)
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	path, err := process.Resolve(argv, cfg.BaseDir)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("found %s", path)}
}

// checkController reports whether a controller answers on the IPC socket.
func checkController(ctx context.Context, socketPath string, autostart bool) Check {
	resp, err := ipc.Status(ctx, socketPath, 500*time.Millisecond)
	if err == nil {
		message := fmt.Sprintf("running, mode %s", resp.Mode)
		if resp.PID > 0 {
			message = fmt.Sprintf("%s (pid %d)", message, resp.PID)
		}
		return Check{Name: "controller", Pass: true, Message: message}
	}
	if autostart {
		return Check{Name: "controller", Pass: true, Message: "not running; started on first request"}
	}
	return Check{Name: "controller", Pass: false, Message: fmt.Sprintf("not running at %s", socketPath)}
}
