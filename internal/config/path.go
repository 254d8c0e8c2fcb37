package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const appName = "touchless"

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appName, "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", appName, "config.jsonc"), nil
}

// StateDir selects XDG_STATE_HOME when available, otherwise ~/.local/state,
// and the system temp dir as a last resort.
func StateDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".local", "state", appName)
}

// DefaultMailboxPath is the shared command file used when none is configured.
func DefaultMailboxPath() string {
	return filepath.Join(StateDir(), "control_command.json")
}

// expandUserPath expands a leading ~ and ${VAR} references.
func expandUserPath(raw string) string {
	raw = os.ExpandEnv(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if raw == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return raw
		}
		return home
	}
	if !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw, "~/"))
}
