package config

import (
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	modes := map[mode.Mode]CommandConfig{}
	for m, raw := range map[mode.Mode]string{
		mode.Hand:     "python3 AImouse.py",
		mode.Eye:      "python3 eyecontrol.py",
		mode.Voice:    "python3 voicecommand.py",
		mode.Keyboard: "python3 AIKeyboard/inference_classifier.py",
	} {
		modes[m] = mustParseCommand(raw)
	}

	return Config{
		Mailbox:             DefaultMailboxPath(),
		PollInterval:        300 * time.Millisecond,
		StopGrace:           5 * time.Second,
		Watch:               true,
		Listen:              "127.0.0.1:5000",
		AutostartController: true,
		LogLevel:            "info",
		Modes:               modes,
		Indicator: IndicatorConfig{
			Enable:      true,
			Backend:     "desktop",
			AppName:     "touchless",
			SoundEnable: true,
			TimeoutMS:   2500,
		},
	}
}
