// Package indicator surfaces mode changes as desktop notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/config"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/hypr"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

// dispatchTimeout bounds each notification so a stuck backend cannot stall
// the controller loop.
var dispatchTimeout = 400 * time.Millisecond

const (
	colorStarted = "rgb(a6e3a1)"
	colorStopped = "rgb(89b4fa)"
	colorFailed  = "rgb(f38ba8)"
)

// Notify is the concrete indicator used by the controller. It routes
// notifications to Hyprland or the desktop notification server.
type Notify struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger

	soundMu sync.Mutex
	cues    sync.WaitGroup
}

// New creates an indicator from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notify {
	return &Notify{
		cfg:    cfg,
		logger: logger,
	}
}

// ModeStarted announces a newly running modality.
func (n *Notify) ModeStarted(ctx context.Context, m mode.Mode, _ int) {
	n.playCue(cueStart, m)
	n.show(ctx, 1, colorStarted, startedText(m), true)
}

// ModeStopped announces that a modality was stopped.
func (n *Notify) ModeStopped(ctx context.Context, m mode.Mode) {
	n.playCue(cueStop, m)
	n.show(ctx, 1, colorStopped, stoppedText(m), false)
}

// LaunchFailed announces a modality that could not be started.
func (n *Notify) LaunchFailed(ctx context.Context, m mode.Mode, reason string) {
	n.playCue(cueError, m)
	n.show(ctx, 3, colorFailed, failedText(m, reason), true)
}

// Wait blocks until queued audio cues have finished.
func (n *Notify) Wait() {
	n.cues.Wait()
}

// show dispatches one notification through the configured backend. With
// replace set, Hyprland notifications still on screen are dismissed first so
// a switch ends on the new mode's bubble.
func (n *Notify) show(ctx context.Context, icon int, color string, text string, replace bool) {
	if !n.cfg.Enable {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	var err error
	if strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "hypr") {
		if replace {
			if dismissErr := hypr.DismissNotify(runCtx); dismissErr != nil {
				n.log("indicator dismiss failed", dismissErr)
			}
		}
		err = hypr.Notify(runCtx, icon, n.timeoutMS(), color, text)
	} else {
		err = desktopNotify(runCtx, n.appName(), text)
	}
	if err != nil {
		n.log("indicator dispatch failed", err)
	}
}

func (n *Notify) appName() string {
	appName := strings.TrimSpace(n.cfg.AppName)
	if appName == "" {
		return "touchless"
	}
	return appName
}

func (n *Notify) timeoutMS() int {
	if n.cfg.TimeoutMS <= 0 {
		return 2500
	}
	return n.cfg.TimeoutMS
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notify) playCue(kind cueKind, m mode.Mode) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		if err := emitCue(ctx, kind, m); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notify) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
