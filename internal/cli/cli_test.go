package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/touchless.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/touchless.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    string
		wantCmd    Command
		wantHelp   bool
		wantPath   string
		wantLabel  string
		wantListen string
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help long flag",
			args:     []string{"--help"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantCmd: CommandVersion,
		},
		{
			name:    "config after command",
			args:    []string{"status", "--config", "/tmp/cfg"},
			wantErr: "unexpected arguments after command",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "missing listen address",
			args:    []string{"--listen"},
			wantErr: "requires an address",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "extra args after command",
			args:    []string{"doctor", "extra"},
			wantErr: "unexpected arguments",
		},
		{
			name:    "controller",
			args:    []string{"controller"},
			wantCmd: CommandController,
		},
		{
			name:       "serve with listen",
			args:       []string{"--listen", "0.0.0.0:8080", "serve"},
			wantCmd:    CommandServe,
			wantListen: "0.0.0.0:8080",
		},
		{
			name:    "listen without serve",
			args:    []string{"--listen", ":8080", "controller"},
			wantErr: "only valid with serve",
		},
		{
			name:      "request joins label words",
			args:      []string{"request", "start", "AImouse.py"},
			wantCmd:   CommandRequest,
			wantLabel: "start AImouse.py",
		},
		{
			name:      "request label may look like a flag",
			args:      []string{"request", "--eye"},
			wantCmd:   CommandRequest,
			wantLabel: "--eye",
		},
		{
			name:    "request without label",
			args:    []string{"request", " "},
			wantErr: "requires a mode label",
		},
		{
			name:     "valid stop with config",
			args:     []string{"--config", "/tmp/cfg", "stop"},
			wantCmd:  CommandStop,
			wantPath: "/tmp/cfg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantLabel, parsed.Label)
			require.Equal(t, tc.wantListen, parsed.Listen)
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("touchless")
	require.Contains(t, text, "controller")
	require.Contains(t, text, "serve")
	require.Contains(t, text, "request LABEL")
	require.Contains(t, text, "stop")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "--config PATH")
}
