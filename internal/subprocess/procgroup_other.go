//go:build !unix

package subprocess

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func killProcessGroup(p *os.Process) error {
	return p.Kill()
}
