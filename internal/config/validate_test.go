package config

import (
	"testing"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty mailbox", mutate: func(c *Config) { c.Mailbox = " " }, wantErr: "mailbox"},
		{name: "zero poll interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: "poll_interval_ms"},
		{name: "zero grace", mutate: func(c *Config) { c.StopGrace = 0 }, wantErr: "stop_grace_ms"},
		{name: "empty listen", mutate: func(c *Config) { c.Listen = "" }, wantErr: "listen"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log_level"},
		{name: "controller cmd raw but empty argv", mutate: func(c *Config) {
			c.ControllerCmd = CommandConfig{Raw: "# nothing"}
		}, wantErr: "controller_cmd"},
		{name: "bad backend", mutate: func(c *Config) { c.Indicator.Backend = "tray" }, wantErr: "indicator.backend"},
		{name: "desktop without app name", mutate: func(c *Config) { c.Indicator.AppName = "" }, wantErr: "indicator.app_name"},
		{name: "negative timeout", mutate: func(c *Config) { c.Indicator.TimeoutMS = -1 }, wantErr: "timeout_ms"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsForUnmappedModes(t *testing.T) {
	cfg := Default()
	delete(cfg.Modes, mode.Keyboard)
	cfg.Modes[mode.Eye] = CommandConfig{}

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "modes.eye")
	require.Contains(t, warnings[1].Message, "modes.keyboard")
}
