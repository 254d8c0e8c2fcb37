// Package fsm plans mode-controller transitions without side effects.
package fsm

import (
	"fmt"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

// Plan lists the side effects needed to move from the active mode to a requested one.
type Plan struct {
	From  mode.Mode
	To    mode.Mode
	Stop  bool
	Start bool
}

// Noop reports whether the plan leaves the running child untouched.
func (p Plan) Noop() bool {
	return !p.Stop && !p.Start
}

// Transition computes the plan for a requested mode.
//
// A repeated request for the active mode is a no-op so a running child is never
// restarted. Any other change stops the current child before a new one starts.
func Transition(active mode.Mode, requested mode.Mode) (Plan, error) {
	if !active.Valid() {
		return Plan{From: active, To: active}, fmt.Errorf("unknown state %q", active)
	}
	if !requested.Valid() {
		return Plan{From: active, To: active}, invalidTransition(active, requested)
	}

	plan := Plan{From: active, To: requested}
	if requested == active {
		return plan, nil
	}
	plan.Stop = active != mode.None
	plan.Start = requested != mode.None
	return plan, nil
}

func invalidTransition(state mode.Mode, requested mode.Mode) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, requested)
}
