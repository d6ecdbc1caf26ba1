//go:build !windows

package infrastructure

import (
	"errors"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the engine in its own process group so that
// signals reach its ffmpeg children too
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // Create new process group
		Pgid:    0,    // Use the new process's PID as PGID
	}
}

// suspendProcess freezes the whole group (SIGSTOP)
func suspendProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGSTOP)
}

// resumeProcess thaws a suspended group (SIGCONT)
func resumeProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGCONT)
}

// terminateProcess asks the group to exit. A suspended group is continued
// first so it can act on SIGTERM.
func terminateProcess(cmd *exec.Cmd) error {
	err := signalGroup(cmd, syscall.SIGTERM)
	signalGroup(cmd, syscall.SIGCONT)
	return err
}

// killProcess kills whatever is left of the group
func killProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return errors.New("process not started")
	}
	err := syscall.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
