// Package ipc carries controller status requests over a local unix socket.
package ipc

import "errors"

// CommandStatus asks the controller for its current snapshot.
const CommandStatus = "status"

// Request is one newline-delimited JSON command.
type Request struct {
	Command string `json:"command"`
}

// Response reports the controller snapshot alongside the command result.
type Response struct {
	OK          bool    `json:"ok"`
	Mode        string  `json:"mode,omitempty"`
	PID         int     `json:"pid,omitempty"`
	LastApplied float64 `json:"last_applied,omitempty"`
	Message     string  `json:"message,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Err turns a rejected response into an error.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return errors.New("controller rejected request")
	}
	return errors.New(r.Error)
}
