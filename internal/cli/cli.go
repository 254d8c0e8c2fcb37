// Package cli parses touchless command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandController Command = "controller"
	CommandServe      Command = "serve"
	CommandRequest    Command = "request"
	CommandStop       Command = "stop"
	CommandStatus     Command = "status"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandController: {},
	CommandServe:      {},
	CommandRequest:    {},
	CommandStop:       {},
	CommandStatus:     {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Listen     string
	Label      string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--listen":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--listen requires an address")
			}
			parsed.Listen = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			rest := args[i+1:]

			if cmd == CommandRequest {
				parsed.Label = strings.TrimSpace(strings.Join(rest, " "))
				if parsed.Label == "" {
					return Parsed{}, errors.New("request requires a mode label")
				}
				return parsed, nil
			}
			if len(rest) != 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			if parsed.Listen != "" && cmd != CommandServe {
				return Parsed{}, errors.New("--listen is only valid with serve")
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  controller        Run the mode controller (polls the command mailbox)
  serve             Serve the HTTP command writer (POST /run)
  request LABEL...  Request the mode matching LABEL (e.g. "AImouse", "eye", "stop")
  stop              Stop every control mode
  status            Print controller state and any pending command
  doctor            Run configuration and environment checks
  version           Print version information
  help              Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/touchless/config.jsonc)
  --listen ADDR   HTTP listen address for serve (default from config)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
