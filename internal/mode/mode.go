// Package mode defines the input modalities and maps free-text requests onto them.
package mode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is one input modality, or None when nothing should run.
type Mode string

const (
	None     Mode = "none"
	Hand     Mode = "hand"
	Eye      Mode = "eye"
	Voice    Mode = "voice"
	Keyboard Mode = "keyboard"
)

// ErrUnknownModeRequest is returned when a request label matches no keyword rule.
var ErrUnknownModeRequest = errors.New("unknown mode request")

// Active lists the modes that own a child process, in launch-table order.
var Active = []Mode{Hand, Eye, Voice, Keyboard}

type rule struct {
	keywords []string
	mode     Mode
}

// rules are evaluated in order; the first keyword hit wins.
var rules = []rule{
	{keywords: []string{"aimouse", "handgesture", "hand"}, mode: Hand},
	{keywords: []string{"eye"}, mode: Eye},
	{keywords: []string{"voice"}, mode: Voice},
	{keywords: []string{"keyboard"}, mode: Keyboard},
	{keywords: []string{"stop"}, mode: None},
}

// Parse converts a wire value into a Mode. Values are exact and lowercase.
func Parse(raw string) (Mode, error) {
	m := Mode(raw)
	if !m.Valid() {
		return "", fmt.Errorf("invalid mode %q", raw)
	}
	return m, nil
}

// Valid reports whether m is one of the five known modes.
func (m Mode) Valid() bool {
	switch m {
	case None, Hand, Eye, Voice, Keyboard:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

// Resolve maps a free-text label such as "start AImouse tracking" onto a Mode
// using case-insensitive substring rules.
func Resolve(label string) (Mode, error) {
	normalized := strings.ToLower(label)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(normalized, keyword) {
				return r.mode, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModeRequest, label)
}

// RequestedMessage is the user-facing acknowledgement for a submitted mode.
func RequestedMessage(m Mode) string {
	if m == None {
		return "All control modes stopped."
	}
	return fmt.Sprintf("%s mode requested. Previous mode will stop automatically.", strings.ToUpper(string(m)))
}
