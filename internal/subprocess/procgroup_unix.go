//go:build unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child as the leader of a new process group so
// that killing it also reaches every descendant.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the child's process group, then to the
// child itself in case it left the group.
func killProcessGroup(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil && !stderrors.Is(err, syscall.ESRCH) {
		return err
	}

	return p.Kill()
}
