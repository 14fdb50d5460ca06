//go:build unix

package bootstrap

import (
	"os/exec"
	"syscall"
)

// processGroupAttr puts the child in its own process group so a signal can
// be delivered to the whole group (the script and anything it forked)
// rather than just the immediate child.
func processGroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcessGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, sig)
}
