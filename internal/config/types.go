// Package config resolves, parses, validates, and defaults touchless configuration.
package config

import (
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

// Config is the fully materialized runtime configuration.
type Config struct {
	Mailbox             string
	BaseDir             string
	PollInterval        time.Duration
	StopGrace           time.Duration
	Watch               bool
	Listen              string
	ControllerCmd       CommandConfig
	AutostartController bool
	LogLevel            string
	Modes               map[mode.Mode]CommandConfig
	Indicator           IndicatorConfig
}

// IndicatorConfig controls mode-switch notifications and audio cues.
type IndicatorConfig struct {
	Enable      bool
	Backend     string
	AppName     string
	SoundEnable bool
	TimeoutMS   int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// LaunchArgv returns the configured argv for m, or nil when unmapped.
func (c Config) LaunchArgv(m mode.Mode) []string {
	cmd, ok := c.Modes[m]
	if !ok {
		return nil
	}
	return cmd.Argv
}
