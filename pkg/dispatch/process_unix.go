//go:build !windows

package dispatch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func prepareCommandForTreeControl(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killCommandTree kills the whole process group so helpers a script forked
// do not outlive the timeout.
func killCommandTree(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err == nil {
		killErr := syscall.Kill(-pgid, syscall.SIGKILL)
		if killErr == nil || killErr == syscall.ESRCH {
			return nil
		}
		return fmt.Errorf("failed to kill process group %d: %w", pgid, killErr)
	}

	if killErr := cmd.Process.Kill(); killErr != nil && killErr != os.ErrProcessDone {
		return fmt.Errorf("failed to kill process %d: %w", cmd.Process.Pid, killErr)
	}
	return nil
}
