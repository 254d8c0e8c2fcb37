//go:build !unix

package process

import (
	"os"
	"os/exec"
)

func configureGroup(*exec.Cmd) {}

// terminate has no graceful signal to send outside unix.
func terminate(p *os.Process) error {
	return p.Kill()
}

func forceKill(p *os.Process) error {
	return p.Kill()
}
