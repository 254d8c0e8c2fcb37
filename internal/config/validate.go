package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Mailbox) == "" {
		return nil, fmt.Errorf("mailbox must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval_ms must be > 0")
	}
	if cfg.StopGrace <= 0 {
		return nil, fmt.Errorf("stop_grace_ms must be > 0")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		return nil, fmt.Errorf("listen must not be empty")
	}
	if _, ok := validLogLevels[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	if cfg.ControllerCmd.Raw != "" && len(cfg.ControllerCmd.Argv) == 0 {
		return nil, fmt.Errorf("controller_cmd is configured but empty")
	}

	backend := cfg.Indicator.Backend
	if backend != "desktop" && backend != "hypr" {
		return nil, fmt.Errorf("indicator.backend must be one of: desktop, hypr")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.AppName) == "" {
		return nil, fmt.Errorf("indicator.app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.TimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.timeout_ms must be >= 0")
	}

	if cfg.PollInterval > 5*time.Second {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("poll_interval_ms=%d makes mode switches slow", cfg.PollInterval.Milliseconds())})
	}
	for _, m := range mode.Active {
		if len(cfg.LaunchArgv(m)) == 0 {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("modes.%s is not configured; requests for it will leave the controller idle", m)})
		}
	}

	return warnings, nil
}
