package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
	"github.com/tailscale/hujson"
)

type jsoncConfig struct {
	Mailbox             *string            `json:"mailbox"`
	BaseDir             *string            `json:"base_dir"`
	PollIntervalMS      *int               `json:"poll_interval_ms"`
	StopGraceMS         *int               `json:"stop_grace_ms"`
	Watch               *bool              `json:"watch"`
	Listen              *string            `json:"listen"`
	ControllerCmd       *string            `json:"controller_cmd"`
	AutostartController *bool              `json:"autostart_controller"`
	LogLevel            *string            `json:"log_level"`
	Modes               map[string]*string `json:"modes"`
	Indicator           *jsoncIndicator    `json:"indicator"`
}

type jsoncIndicator struct {
	Enable      *bool   `json:"enable"`
	Backend     *string `json:"backend"`
	AppName     *string `json:"app_name"`
	SoundEnable *bool   `json:"sound_enable"`
	TimeoutMS   *int    `json:"timeout_ms"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := hujson.Standardize([]byte(content))
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(string(normalized), err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(string(normalized), err)
	}

	cfg := cloneConfig(base)
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

// cloneConfig copies base so overlays never mutate the caller's mode table.
func cloneConfig(base Config) Config {
	cfg := base
	cfg.Modes = make(map[mode.Mode]CommandConfig, len(base.Modes))
	for m, cmd := range base.Modes {
		cfg.Modes[m] = cmd
	}
	return cfg
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Mailbox != nil {
		cfg.Mailbox = expandUserPath(*payload.Mailbox)
	}
	if payload.BaseDir != nil {
		cfg.BaseDir = expandUserPath(*payload.BaseDir)
	}
	if payload.PollIntervalMS != nil {
		cfg.PollInterval = time.Duration(*payload.PollIntervalMS) * time.Millisecond
	}
	if payload.StopGraceMS != nil {
		cfg.StopGrace = time.Duration(*payload.StopGraceMS) * time.Millisecond
	}
	if payload.Watch != nil {
		cfg.Watch = *payload.Watch
	}
	if payload.Listen != nil {
		cfg.Listen = strings.TrimSpace(*payload.Listen)
	}
	if payload.AutostartController != nil {
		cfg.AutostartController = *payload.AutostartController
	}
	if payload.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*payload.LogLevel))
	}

	if payload.ControllerCmd != nil {
		cmd, err := ParseCommand(*payload.ControllerCmd)
		if err != nil {
			return nil, fmt.Errorf("invalid controller_cmd: %w", err)
		}
		cfg.ControllerCmd = cmd
	}

	for name, raw := range payload.Modes {
		m, err := mode.Parse(name)
		if err != nil || m == mode.None {
			return nil, fmt.Errorf("modes: unknown mode %q", name)
		}
		if raw == nil {
			delete(cfg.Modes, m)
			continue
		}
		cmd, err := ParseCommand(*raw)
		if err != nil {
			return nil, fmt.Errorf("invalid modes.%s: %w", m, err)
		}
		cfg.Modes[m] = cmd
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.Backend != nil {
			cfg.Indicator.Backend = strings.ToLower(strings.TrimSpace(*payload.Indicator.Backend))
		}
		if payload.Indicator.AppName != nil {
			cfg.Indicator.AppName = strings.TrimSpace(*payload.Indicator.AppName)
		}
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.TimeoutMS != nil {
			cfg.Indicator.TimeoutMS = *payload.Indicator.TimeoutMS
		}
	}

	return warnings, nil
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
